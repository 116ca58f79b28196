package backend

// Stats is the upload-page summary.
type Stats struct {
	ADDomains  map[string]DomainStats `json:"ad_domains"`
	ADTotal    LooseInt               `json:"ad_total"`
	ADRows     LooseInt               `json:"ad_rows"`
	MFARows    LooseInt               `json:"mfa_rows"`
	PeopleRows LooseInt               `json:"people_rows"`
	LastUpload map[string]*UploadInfo `json:"last_upload"`
}

// ADCount returns the AD row count, preferring the per-domain total.
func (s Stats) ADCount() int {
	if s.ADTotal > 0 {
		return int(s.ADTotal)
	}
	return int(s.ADRows)
}

// DomainStats is the row count of one AD domain.
type DomainStats struct {
	City string   `json:"city"`
	Rows LooseInt `json:"rows"`
}

// UploadInfo describes the last accepted file of a source.
type UploadInfo struct {
	Filename string   `json:"filename"`
	At       string   `json:"at"`
	Rows     LooseInt `json:"rows"`
}

// UploadResult is the answer to a file upload.
type UploadResult struct {
	Rows     LooseInt `json:"rows"`
	Filename string   `json:"filename"`
	Skipped  LooseInt `json:"skipped"`
}

// ClearResult is the answer to clearing one source.
type ClearResult struct {
	Deleted LooseInt `json:"deleted"`
}

// ClearAllResult carries per-source deletion counts keyed ad, mfa, people.
type ClearAllResult struct {
	Deleted map[string]LooseInt `json:"deleted"`
}

// RowSet is the consolidated table.
type RowSet struct {
	Rows  []Record `json:"rows"`
	Total LooseInt `json:"total"`
}

// Duplicates lists logins present in more than one AD domain.
type Duplicates struct {
	Rows         []Record `json:"rows"`
	TotalRecords LooseInt `json:"total_records"`
	UniqueLogins LooseInt `json:"unique_logins"`
}

// GroupTree is the domain → group structure.
type GroupTree struct {
	Domains []GroupDomain `json:"domains"`
}

// GroupDomain is one AD domain of the group tree.
type GroupDomain struct {
	Key        string      `json:"key"`
	City       string      `json:"city"`
	Groups     []GroupNode `json:"groups"`
	TotalUsers LooseInt    `json:"total_users"`
}

// GroupNode is one security group. ActiveCount is optional; when the
// backend does not send it the raw count is used.
type GroupNode struct {
	Name        string    `json:"name"`
	Count       LooseInt  `json:"count"`
	ActiveCount *LooseInt `json:"active_count,omitempty"`
}

// StructureTree is the domain → OU structure.
type StructureTree struct {
	Domains []StructureDomain `json:"domains"`
}

// StructureDomain is one AD domain of the OU tree.
type StructureDomain struct {
	Key        string   `json:"key"`
	City       string   `json:"city"`
	TotalUsers LooseInt `json:"total_users"`
	Tree       []OUNode `json:"tree"`
}

// OUNode is an organizational unit. Count holds accounts placed directly in
// the unit, Total includes nested units.
type OUNode struct {
	Name        string    `json:"name"`
	Count       LooseInt  `json:"count"`
	Total       LooseInt  `json:"total"`
	ActiveCount *LooseInt `json:"active_count,omitempty"`
	Children    []OUNode  `json:"children"`
}

// OrgTree is the company → department structure.
type OrgTree struct {
	Companies  []Company `json:"companies"`
	TotalUsers LooseInt  `json:"total_users"`
}

// Company groups departments.
type Company struct {
	Name        string       `json:"name"`
	Departments []Department `json:"departments"`
	Count       LooseInt     `json:"count"`
}

// Department is a leaf of the org tree.
type Department struct {
	Name        string    `json:"name"`
	Count       LooseInt  `json:"count"`
	ActiveCount *LooseInt `json:"active_count,omitempty"`
}

// Members is the member list of a group, OU or department.
type Members struct {
	Group      string   `json:"group,omitempty"`
	Path       string   `json:"path,omitempty"`
	OUName     string   `json:"ou_name,omitempty"`
	Company    string   `json:"company,omitempty"`
	Department string   `json:"department,omitempty"`
	Domain     string   `json:"domain,omitempty"`
	City       string   `json:"city,omitempty"`
	Members    []Record `json:"members"`
	Count      LooseInt `json:"count"`
}

// UserSummary is one entry of the user finder.
type UserSummary struct {
	Key         string   `json:"key"`
	StaffUUID   string   `json:"staff_uuid"`
	FIO         string   `json:"fio"`
	Logins      []string `json:"logins"`
	Sources     []string `json:"sources"`
	HasMFA      bool     `json:"has_mfa"`
	HasPeople   bool     `json:"has_people"`
	AllDisabled bool     `json:"all_disabled"`
}

// UserList is the finder index.
type UserList struct {
	Users []UserSummary `json:"users"`
	Total LooseInt      `json:"total"`
}

// UserCard aggregates everything known about one identity.
type UserCard struct {
	StaffUUID  string      `json:"staff_uuid"`
	FIO        string      `json:"fio"`
	Logins     []string    `json:"logins"`
	AD         []Record    `json:"ad"`
	MFA        []Record    `json:"mfa"`
	People     Record      `json:"people"`
	Duplicates []Candidate `json:"duplicates"`
	City       string      `json:"city"`
	Hub        string      `json:"hub"`
	DPUnit     string      `json:"dp_unit"`
	RM         string      `json:"rm"`
}

// Candidate is a possible duplicate of the card's identity.
type Candidate struct {
	Key    string `json:"key"`
	FIO    string `json:"fio"`
	Reason string `json:"reason"`
}

// DNResolution is the answer of the by-dn lookup.
type DNResolution struct {
	Found       bool   `json:"found"`
	Key         string `json:"key"`
	DisplayName string `json:"display_name"`
}

// SecurityReport is the full findings report.
type SecurityReport struct {
	TotalAccounts LooseInt  `json:"total_accounts"`
	TotalEnabled  LooseInt  `json:"total_enabled"`
	TotalIssues   LooseInt  `json:"total_issues"`
	CriticalCount LooseInt  `json:"critical_count"`
	HighCount     LooseInt  `json:"high_count"`
	Findings      []Finding `json:"findings"`
}

// Finding is one security check with its offending accounts.
type Finding struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Severity     string        `json:"severity"`
	Description  string        `json:"description"`
	ExtraColumns []ExtraColumn `json:"extra_columns"`
	Count        LooseInt      `json:"count"`
	Items        []Record      `json:"items"`
}

// ExtraColumn is a finding-specific items column.
type ExtraColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ExportColumn is a column of an export request.
type ExportColumn struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ExportTableRequest is the payload of /api/export/table.
type ExportTableRequest struct {
	Columns  []ExportColumn      `json:"columns"`
	Rows     []map[string]string `json:"rows"`
	Filename string              `json:"filename"`
	Sheet    string              `json:"sheet"`
}

// LoginRequest carries directory credentials.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Domain   string `json:"domain"`
}

// LoginResult is a successful login.
type LoginResult struct {
	Token string  `json:"token"`
	User  AppUser `json:"user"`
}

// AppUser is the signed-in operator.
type AppUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Domain      string `json:"domain"`
}

// AuthStatus reports whether the backend enforces authentication.
type AuthStatus struct {
	Configured bool `json:"configured"`
}

// Me is the /api/auth/me answer.
type Me struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Domain   string `json:"domain"`
}
