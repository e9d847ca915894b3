package memory

import "github.com/riskibarqy/waiver-wire/internal/domain/team"

// SeedTeams returns the development league in its default priority
// order. Role IDs follow the production directory format.
func SeedTeams() []team.Team {
	return []team.Team{
		{Code: "BBB", Name: "Bondi Beach Buccaneers", RoleID: "712159373832486972", Priority: 1},
		{Code: "NOR", Name: "Norfolk Seawolves", RoleID: "712159741237002351", Priority: 2},
		{Code: "KCC", Name: "Kansas City Coyotes", RoleID: "712159686991806595", Priority: 3},
		{Code: "DAL", Name: "Dallas Birddogs", RoleID: "712159262796939304", Priority: 4},
		{Code: "PDX", Name: "Portland Pythons", RoleID: "712159867250409572", Priority: 5},
		{Code: "LDN", Name: "London Royals", RoleID: "712159867942469763", Priority: 6},
		{Code: "MIN", Name: "Minnesota Grey Ducks", RoleID: "712159868668084274", Priority: 7},
		{Code: "TIJ", Name: "Tijuana Luchadores", RoleID: "712159866369605654", Priority: 8},
	}
}

// SeedDirectory returns the directory entries matching SeedTeams.
func SeedDirectory() []team.Entry {
	teams := SeedTeams()
	out := make([]team.Entry, 0, len(teams))
	for _, t := range teams {
		out = append(out, team.Entry{Code: t.Code, RoleID: t.RoleID, Name: t.Name})
	}

	return out
}
