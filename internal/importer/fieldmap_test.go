package importer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motu-crew/crewboard/internal/importer"
)

func TestBuildColumnMap_FirstAliasInPriorityOrderWins(t *testing.T) {
	headers := []string{"Team", " Crew ", "Address", "Site Address", "Duration", "Hours", "Motu"}

	m := importer.BuildColumnMap(headers, importer.DefaultAliases)

	assert.Equal(t, " Crew ", m[importer.FieldCrewName], "crew outranks team")
	assert.Equal(t, "Address", m[importer.FieldFullAddress])
	assert.Equal(t, "Duration", m[importer.FieldJobDurationHours])
	assert.Equal(t, "Motu", m[importer.FieldFeeder])
	_, ok := m[importer.FieldDate]
	assert.False(t, ok, "unmapped fields are absent")
}

func TestBuildColumnMap_NoFuzzyMatching(t *testing.T) {
	m := importer.BuildColumnMap([]string{"Dates", "crewname", "No."}, importer.DefaultAliases)

	assert.Equal(t, importer.ColumnMap{importer.FieldAddressNumber: "No."}, m)
}

func TestAliasTable_ExtendKeepsBuiltInPriority(t *testing.T) {
	aliases, err := importer.DefaultAliases.Extend(map[string][]string{
		importer.FieldDate: {"  Visit Day "},
	})
	require.NoError(t, err)

	m := importer.BuildColumnMap([]string{"visit day"}, aliases)
	assert.Equal(t, "visit day", m[importer.FieldDate])

	m = importer.BuildColumnMap([]string{"visit day", "Date"}, aliases)
	assert.Equal(t, "Date", m[importer.FieldDate])

	assert.NotContains(t, importer.DefaultAliases[importer.FieldDate], "visit day")
}

func TestAliasTable_ExtendRejectsUnknownField(t *testing.T) {
	_, err := importer.DefaultAliases.Extend(map[string][]string{"colour": {"color"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("crew_name:\n  - gang\nfeeder: [zone]\n"), 0o600))

	extra, err := importer.LoadAliases(path)
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"crew_name": {"gang"}, "feeder": {"zone"}}, extra)

	require.NoError(t, os.WriteFile(path, []byte("crew_name: [unterminated"), 0o600))
	_, err = importer.LoadAliases(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse alias file")

	_, err = importer.LoadAliases(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
