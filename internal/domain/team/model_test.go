package team

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDirectory(t *testing.T) {
	entries := []Entry{
		{Code: "BBB", RoleID: "1001", Name: "Bondi Beach Buccaneers"},
		{Code: "NOR", RoleID: "1002", Name: "Norfolk Seawolves"},
	}

	d, err := NewDirectory(entries)
	require.NoError(t, err)

	byCode, ok := d.ByCode("NOR")
	require.True(t, ok)
	require.Equal(t, "1002", byCode.RoleID)

	byRole, ok := d.ByRole("1001")
	require.True(t, ok)
	require.Equal(t, "BBB", byRole.Code)

	_, ok = d.ByCode("ZZZ")
	require.False(t, ok)

	require.Equal(t, 2, d.Len())
	require.ElementsMatch(t, []string{"BBB", "NOR"}, d.Codes())
}

func TestDirectoryRejectsBadEntries(t *testing.T) {
	_, err := NewDirectory([]Entry{{Code: "BBB", RoleID: "", Name: "Bondi"}})
	require.Error(t, err)

	_, err = NewDirectory([]Entry{
		{Code: "BBB", RoleID: "1001", Name: "Bondi"},
		{Code: "BBB", RoleID: "1002", Name: "Duplicate"},
	})
	require.Error(t, err)

	_, err = NewDirectory([]Entry{
		{Code: "BBB", RoleID: "1001", Name: "Bondi"},
		{Code: "NOR", RoleID: "1001", Name: "Duplicate role"},
	})
	require.Error(t, err)
}

func TestTeamValidate(t *testing.T) {
	valid := Team{Code: "BBB", Name: "Bondi Beach Buccaneers", RoleID: "1001", Priority: 1}
	require.NoError(t, valid.Validate())

	for name, mutate := range map[string]func(*Team){
		"empty code":    func(tm *Team) { tm.Code = "" },
		"empty name":    func(tm *Team) { tm.Name = "" },
		"zero priority": func(tm *Team) { tm.Priority = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			tm := valid
			mutate(&tm)
			require.Error(t, tm.Validate())
		})
	}
}
