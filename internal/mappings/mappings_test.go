package mappings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/compliance-proxy/internal/models"
)

func TestLoadDefaults(t *testing.T) {
	set, err := LoadDefaults()
	require.NoError(t, err)

	assert.Equal(t, []string{"CIS-1.4"}, set.Generic.Controls("ROOT_ACCESS_KEY"))
	assert.Equal(t, []string{"SC-28"}, set.NIST80053.Controls("RDS_UNENCRYPTED"))
	assert.Contains(t, set.NIST800171.ControlIDs(), "3.13.16")

	// GUARDDUTY_DISABLED has no generic key, ELB_HTTP_LISTENER an empty list.
	assert.Empty(t, set.Generic.Controls("GUARDDUTY_DISABLED"))
	assert.Empty(t, set.Generic.Controls("ELB_HTTP_LISTENER"))
}

func TestLoad_FreshOnEveryCall(t *testing.T) {
	a, err := LoadDefaults()
	require.NoError(t, err)
	a.NIST80053["ROOT_ACCESS_KEY"] = []string{"mutated"}

	b, err := LoadDefaults()
	require.NoError(t, err)
	assert.NotEqual(t, []string{"mutated"}, b.NIST80053.Controls("ROOT_ACCESS_KEY"))
}

func TestParse_OrderAndDuplicates(t *testing.T) {
	tbl, err := Parse([]byte(`{"X": ["B-2", "A-1", "B-2", " C-3 "]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"B-2", "A-1", "C-3"}, tbl.Controls("X"))
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"array":         `["X"]`,
		"null":          `null`,
		"string value":  `{"X": "AC-2"}`,
		"empty control": `{"X": [""]}`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			assert.ErrorIs(t, err, ErrInvalidMapping)
		})
	}
}

func TestTable_ControlIDsAndChecksFor(t *testing.T) {
	tbl := Table{
		"A": {"SC-28", "AC-2"},
		"B": {"SC-28"},
		"C": {},
	}
	assert.Equal(t, []string{"AC-2", "SC-28"}, tbl.ControlIDs())
	assert.Equal(t, []string{"A", "B"}, tbl.ChecksFor("SC-28"))
	assert.Empty(t, tbl.ChecksFor("XX-1"))
}

func TestSet_Table(t *testing.T) {
	set := Set{Generic: Table{"A": {"G"}}}
	tbl, err := set.Table(models.FrameworkGeneric)
	require.NoError(t, err)
	assert.Equal(t, []string{"G"}, tbl.Controls("A"))

	_, err = set.Table("iso-27001")
	assert.ErrorIs(t, err, ErrUnknownFramework)
}

func TestSet_UnknownChecks(t *testing.T) {
	set := Set{
		Generic:   Table{"A": {"G"}, "OLD": {"G"}},
		NIST80053: Table{"OLD": {"X"}, "GONE": {"Y"}},
	}
	assert.Equal(t, []string{"GONE", "OLD"}, set.UnknownChecks([]string{"A"}))
}

func TestLoad_OverrideFileAndFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, NIST80053File), []byte(`{"ONLY": ["AC-1"]}`), 0o600))

	paths := PathsFromDir(dir)
	assert.Empty(t, paths.Generic)
	assert.NotEmpty(t, paths.NIST80053)

	set, err := Load(paths)
	require.NoError(t, err)
	assert.Equal(t, []string{"AC-1"}, set.NIST80053.ControlIDs())
	assert.NotEmpty(t, set.Generic.ControlIDs(), "generic falls back to the embedded table")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(Paths{Generic: filepath.Join(t.TempDir(), "absent.json")})
	assert.ErrorIs(t, err, ErrInvalidMapping)
}

func TestPaths_Merge(t *testing.T) {
	p := Paths{Generic: "a.json"}.Merge(Paths{Generic: "b.json", NIST800171: "c.json"})
	assert.Equal(t, Paths{Generic: "a.json", NIST800171: "c.json"}, p)
}
