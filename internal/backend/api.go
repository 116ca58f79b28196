package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// Upload posts a source file as multipart form data.
func (c *Client) Upload(ctx context.Context, source, filename string, content io.Reader) (res *UploadResult, err error) {
	defer observe("upload", time.Now(), &err)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err = io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err = mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/upload/"+source, nil, mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	if err = CheckError(resp); err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck
	res = &UploadResult{}
	if err = decodeJSON(resp.Body, res); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	if res.Filename == "" {
		res.Filename = filename
	}
	return res, nil
}

// Clear deletes all records of one source.
func (c *Client) Clear(ctx context.Context, source string) (*ClearResult, error) {
	var out ClearResult
	if err := c.call(ctx, "clear", http.MethodDelete, "/api/clear/"+source, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ClearAll deletes every source.
func (c *Client) ClearAll(ctx context.Context) (*ClearAllResult, error) {
	var out ClearAllResult
	if err := c.call(ctx, "clear_all", http.MethodDelete, "/api/clear/all", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns per-source counts and last-upload metadata.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := c.call(ctx, "stats", http.MethodGet, "/api/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Consolidated returns the identity-merged rows.
func (c *Client) Consolidated(ctx context.Context) (*RowSet, error) {
	var out RowSet
	if err := c.call(ctx, "consolidated", http.MethodGet, "/api/consolidated", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Duplicates returns the duplicate-login report.
func (c *Client) Duplicates(ctx context.Context) (*Duplicates, error) {
	var out Duplicates
	if err := c.call(ctx, "duplicates", http.MethodGet, "/api/duplicates", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupTree returns AD groups per domain.
func (c *Client) GroupTree(ctx context.Context) (*GroupTree, error) {
	var out GroupTree
	if err := c.call(ctx, "groups_tree", http.MethodGet, "/api/groups/tree", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GroupMembers lists the members of group in domain.
func (c *Client) GroupMembers(ctx context.Context, group, domain string) (*Members, error) {
	q := url.Values{"group": {group}, "domain": {domain}}
	var out Members
	if err := c.call(ctx, "groups_members", http.MethodGet, "/api/groups/members", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StructureTree returns the OU tree per domain.
func (c *Client) StructureTree(ctx context.Context) (*StructureTree, error) {
	var out StructureTree
	if err := c.call(ctx, "structure_tree", http.MethodGet, "/api/structure/tree", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StructureMembers lists accounts placed directly in the OU at path.
func (c *Client) StructureMembers(ctx context.Context, path, domain string) (*Members, error) {
	q := url.Values{"path": {path}, "domain": {domain}}
	var out Members
	if err := c.call(ctx, "structure_members", http.MethodGet, "/api/structure/members", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrgTree returns companies and their departments.
func (c *Client) OrgTree(ctx context.Context) (*OrgTree, error) {
	var out OrgTree
	if err := c.call(ctx, "org_tree", http.MethodGet, "/api/org/tree", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// OrgMembers lists accounts of a company, optionally narrowed to a
// department.
func (c *Client) OrgMembers(ctx context.Context, company, department string) (*Members, error) {
	q := url.Values{"company": {company}}
	if department != "" {
		q.Set("department", department)
	}
	var out Members
	if err := c.call(ctx, "org_members", http.MethodGet, "/api/org/members", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserList returns the finder index.
func (c *Client) UserList(ctx context.Context) (*UserList, error) {
	var out UserList
	if err := c.call(ctx, "users_list", http.MethodGet, "/api/users/list", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserCard returns the aggregated card of key.
func (c *Client) UserCard(ctx context.Context, key string) (*UserCard, error) {
	var out UserCard
	if err := c.call(ctx, "users_card", http.MethodGet, "/api/users/card", url.Values{"key": {key}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveDN maps a distinguished name to a known identity.
func (c *Client) ResolveDN(ctx context.Context, dn string) (*DNResolution, error) {
	var out DNResolution
	if err := c.call(ctx, "users_by_dn", http.MethodGet, "/api/users/by-dn", url.Values{"dn": {dn}}, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SecurityFindings returns the security report.
func (c *Client) SecurityFindings(ctx context.Context) (*SecurityReport, error) {
	var out SecurityReport
	if err := c.call(ctx, "security_findings", http.MethodGet, "/api/security/findings", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportTable renders rows into a workbook on the backend.
func (c *Client) ExportTable(ctx context.Context, req ExportTableRequest) (*Download, error) {
	return c.download(ctx, "export_table", http.MethodPost, "/api/export/table", req, req.Filename)
}

// ExportConsolidated streams the full consolidated workbook.
func (c *Client) ExportConsolidated(ctx context.Context) (*Download, error) {
	return c.download(ctx, "export_xlsx", http.MethodGet, "/api/export/xlsx", nil, "consolidated.xlsx")
}

// Login exchanges directory credentials for a bearer token.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var out LoginResult
	if err := c.call(ctx, "auth_login", http.MethodPost, "/api/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthStatus reports whether the backend requires authentication.
func (c *Client) AuthStatus(ctx context.Context) (*AuthStatus, error) {
	var out AuthStatus
	if err := c.call(ctx, "auth_status", http.MethodGet, "/api/auth/status", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the operator behind the client's token.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.call(ctx, "auth_me", http.MethodGet, "/api/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
