package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idrecon/internal/backend"
	"idrecon/internal/table"
)

func datasetRows(set string, records ...map[string]string) []table.Row {
	return table.NewDataset(table.MustColumnSet(set), records).Rows
}

func TestDuplicateClasses(t *testing.T) {
	rows := datasetRows("duplicates",
		map[string]string{"login": "ivanov", "enabled": "Да"},
		map[string]string{"login": "IVANOV", "enabled": "Нет"},
		map[string]string{"login": "petrov", "enabled": "Да"},
		map[string]string{"login": "petrov", "enabled": "Да"},
		map[string]string{"login": "sidorov", "enabled": "Да"},
	)
	assert.Equal(t, []string{
		"",
		"uz-inactive",
		"dup-group-sep dup-group-alt",
		"dup-group-alt",
		"dup-group-sep",
	}, duplicateClasses(nil, rows))
}

func TestDuplicateClasses_ContinuesAcrossChunks(t *testing.T) {
	rows := datasetRows("duplicates",
		map[string]string{"login": "ivanov"},
		map[string]string{"login": "ivanov"},
		map[string]string{"login": "petrov"},
		map[string]string{"login": "petrov"},
		map[string]string{"login": "sidorov"},
	)
	whole := duplicateClasses(nil, rows)
	for split := 1; split < len(rows); split++ {
		tail := duplicateClasses(rows[:split], rows[split:])
		assert.Equal(t, whole[split:], tail, "split at %d", split)
	}
}

func TestConsolidatedClasses(t *testing.T) {
	rows := datasetRows("consolidated",
		map[string]string{"source": "AD", "uz_active": "Нет"},
		map[string]string{"source": "Кадры"},
		map[string]string{"source": "other"},
	)
	assert.Equal(t, []string{"source-ad uz-inactive", "source-people", ""}, consolidatedClasses(nil, rows))
}

func TestLookupView(t *testing.T) {
	for _, name := range []string{"consolidated", "duplicates", "groups-members", "structure-members", "org-members", "security-pwd_never"} {
		def, ok := lookupView(name)
		require.True(t, ok, name)
		assert.Equal(t, name, def.Name)
	}
	_, ok := lookupView("security-")
	assert.False(t, ok)
	_, ok = lookupView("nope")
	assert.False(t, ok)
}

func TestFindingColumns_AppendsExtras(t *testing.T) {
	f := backend.Finding{ID: "x", ExtraColumns: []backend.ExtraColumn{{Key: "spn", Label: "SPN"}}}
	cols := findingColumns(f)
	base := table.MustColumnSet("security_items")
	require.Len(t, cols, len(base)+1)
	assert.Equal(t, "spn", cols[len(cols)-1].Key)
}

func TestSecurityExportName(t *testing.T) {
	filename, sheet := securityView("pwd_never").Export(nil)
	assert.Equal(t, "Безопасность_pwd_never.xlsx", filename)
	assert.Equal(t, "pwd_never", sheet)
}
