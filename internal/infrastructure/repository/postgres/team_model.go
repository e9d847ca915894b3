package postgres

import "github.com/riskibarqy/waiver-wire/internal/domain/team"

type teamTableModel struct {
	Code     string `db:"code"`
	Name     string `db:"name"`
	RoleID   string `db:"role_id"`
	Priority int    `db:"priority"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		Code:     m.Code,
		Name:     m.Name,
		RoleID:   m.RoleID,
		Priority: m.Priority,
	}
}
