package team

import "fmt"

// Team is one franchise in the waiver priority order. Code is the
// three-letter abbreviation used as the stable team identifier; RoleID
// is the external chat-role identifier the front-end resolves members
// against.
type Team struct {
	Code     string
	Name     string
	RoleID   string
	Priority int
}

func (t Team) Validate() error {
	if t.Code == "" {
		return fmt.Errorf("team code is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Priority < 1 {
		return fmt.Errorf("team priority must be >= 1")
	}

	return nil
}

// Directory is the static bidirectional mapping between team codes,
// external role identifiers, and display names, loaded once at startup
// and injected read-only.
type Directory struct {
	byCode map[string]Entry
	byRole map[string]Entry
}

type Entry struct {
	Code   string
	RoleID string
	Name   string
}

func NewDirectory(entries []Entry) (*Directory, error) {
	d := &Directory{
		byCode: make(map[string]Entry, len(entries)),
		byRole: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		if e.Code == "" || e.RoleID == "" || e.Name == "" {
			return nil, fmt.Errorf("incomplete directory entry: %+v", e)
		}
		if _, ok := d.byCode[e.Code]; ok {
			return nil, fmt.Errorf("duplicate team code %s", e.Code)
		}
		if _, ok := d.byRole[e.RoleID]; ok {
			return nil, fmt.Errorf("duplicate role id %s", e.RoleID)
		}
		d.byCode[e.Code] = e
		d.byRole[e.RoleID] = e
	}

	return d, nil
}

func (d *Directory) ByCode(code string) (Entry, bool) {
	e, ok := d.byCode[code]
	return e, ok
}

func (d *Directory) ByRole(roleID string) (Entry, bool) {
	e, ok := d.byRole[roleID]
	return e, ok
}

func (d *Directory) Codes() []string {
	out := make([]string, 0, len(d.byCode))
	for code := range d.byCode {
		out = append(out, code)
	}

	return out
}

func (d *Directory) Len() int {
	return len(d.byCode)
}
