package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Project is a named container for flows and screens. Projects are only
// ever soft-deleted; deletion cascades to everything they own.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	OwnerUserID string     `json:"owner_user_id"`
	OwnerOrgID  string     `json:"owner_org_id,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// ParentKind discriminates the three places a flow can live.
type ParentKind int

const (
	ParentTopLevel ParentKind = iota
	ParentFlow
	ParentScreen
)

func (k ParentKind) String() string {
	switch k {
	case ParentFlow:
		return "flow"
	case ParentScreen:
		return "screen"
	default:
		return "top-level"
	}
}

// ParentRef is a flow's parent reference. Exactly one of the three
// variants holds: top-level, nested under another flow, or branching
// from a screen. The zero value is top-level.
type ParentRef struct {
	kind ParentKind
	id   string
}

// TopLevel returns the parent reference of a root flow.
func TopLevel() ParentRef { return ParentRef{} }

// UnderFlow returns a reference to a parent flow.
func UnderFlow(flowID string) ParentRef {
	return ParentRef{kind: ParentFlow, id: flowID}
}

// UnderScreen returns a reference to the screen a branch starts from.
func UnderScreen(screenID string) ParentRef {
	return ParentRef{kind: ParentScreen, id: screenID}
}

// ParentRefFromColumns rebuilds a ParentRef from the nullable column
// pair used by the flows table. A row with both columns set is corrupt
// and is rejected rather than silently resolved.
func ParentRefFromColumns(parentFlowID, parentScreenID string) (ParentRef, error) {
	switch {
	case parentFlowID != "" && parentScreenID != "":
		return ParentRef{}, fmt.Errorf("flow has both parent_flow_id %q and parent_screen_id %q set", parentFlowID, parentScreenID)
	case parentFlowID != "":
		return UnderFlow(parentFlowID), nil
	case parentScreenID != "":
		return UnderScreen(parentScreenID), nil
	default:
		return TopLevel(), nil
	}
}

func (p ParentRef) Kind() ParentKind { return p.kind }

// FlowID returns the parent flow id and true when the flow nests under
// another flow.
func (p ParentRef) FlowID() (string, bool) {
	if p.kind == ParentFlow {
		return p.id, true
	}
	return "", false
}

// ScreenID returns the branch-point screen id and true when the flow
// branches from a screen.
func (p ParentRef) ScreenID() (string, bool) {
	if p.kind == ParentScreen {
		return p.id, true
	}
	return "", false
}

// IsTopLevel reports whether the flow has no parent.
func (p ParentRef) IsTopLevel() bool { return p.kind == ParentTopLevel }

// Columns returns the (parent_flow_id, parent_screen_id) pair for
// persistence. At most one is non-empty.
func (p ParentRef) Columns() (parentFlowID, parentScreenID string) {
	switch p.kind {
	case ParentFlow:
		return p.id, ""
	case ParentScreen:
		return "", p.id
	default:
		return "", ""
	}
}

func (p ParentRef) String() string {
	if p.kind == ParentTopLevel {
		return "top-level"
	}
	return fmt.Sprintf("%s:%s", p.kind, p.id)
}

// parentRefJSON is the wire shape of a move target:
// {"kind":"top-level"} | {"kind":"flow","id":...} | {"kind":"screen","id":...}.
type parentRefJSON struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

func (p ParentRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(parentRefJSON{Kind: p.kind.String(), ID: p.id})
}

func (p *ParentRef) UnmarshalJSON(data []byte) error {
	var j parentRefJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	switch j.Kind {
	case "", "top-level":
		*p = TopLevel()
	case "flow":
		if j.ID == "" {
			return fmt.Errorf("move target kind %q requires an id", j.Kind)
		}
		*p = UnderFlow(j.ID)
	case "screen":
		if j.ID == "" {
			return fmt.Errorf("move target kind %q requires an id", j.Kind)
		}
		*p = UnderScreen(j.ID)
	default:
		return fmt.Errorf("unknown move target kind %q", j.Kind)
	}
	return nil
}

// Flow is a named, ordered sequence of screens representing one user
// journey. ScreenCount is always recomputed from the live screen set,
// never stored.
type Flow struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	OrderIndex  int        `json:"order_index"`
	ScreenCount int        `json:"screen_count"`
	Parent      ParentRef  `json:"-"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// flowJSON mirrors the wire shape of a flow, with the parent reference
// flattened into the nullable column pair clients expect.
type flowJSON struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	OrderIndex     int        `json:"order_index"`
	ScreenCount    int        `json:"screen_count"`
	ParentFlowID   *string    `json:"parent_flow_id"`
	ParentScreenID *string    `json:"parent_screen_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty"`
}

func (f Flow) MarshalJSON() ([]byte, error) {
	j := flowJSON{
		ID:          f.ID,
		ProjectID:   f.ProjectID,
		Name:        f.Name,
		Description: f.Description,
		OrderIndex:  f.OrderIndex,
		ScreenCount: f.ScreenCount,
		CreatedAt:   f.CreatedAt,
		UpdatedAt:   f.UpdatedAt,
		DeletedAt:   f.DeletedAt,
	}
	if id, ok := f.Parent.FlowID(); ok {
		j.ParentFlowID = &id
	}
	if id, ok := f.Parent.ScreenID(); ok {
		j.ParentScreenID = &id
	}
	return json.Marshal(j)
}

func (f *Flow) UnmarshalJSON(data []byte) error {
	var j flowJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	var pf, ps string
	if j.ParentFlowID != nil {
		pf = *j.ParentFlowID
	}
	if j.ParentScreenID != nil {
		ps = *j.ParentScreenID
	}
	parent, err := ParentRefFromColumns(pf, ps)
	if err != nil {
		return err
	}
	*f = Flow{
		ID:          j.ID,
		ProjectID:   j.ProjectID,
		Name:        j.Name,
		Description: j.Description,
		OrderIndex:  j.OrderIndex,
		ScreenCount: j.ScreenCount,
		Parent:      parent,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		DeletedAt:   j.DeletedAt,
	}
	return nil
}

// Screen is one captured UI state within a flow. ParentID points at
// another screen in the same flow, forming a sub-tree of alternate
// child states; screens never move between flows.
type Screen struct {
	ID            string     `json:"id"`
	FlowID        string     `json:"flow_id"`
	ParentID      string     `json:"parent_id,omitempty"`
	Title         string     `json:"title"`
	DisplayName   string     `json:"display_name"`
	ScreenshotURL string     `json:"screenshot_url,omitempty"`
	Notes         string     `json:"notes"`
	OrderIndex    int        `json:"order_index"`
	Level         int        `json:"level"`
	Path          string     `json:"path,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// Label returns the human-facing name, falling back to the technical
// title when no display name is set.
func (s *Screen) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Title
}

// Actor identifies who is performing an operation. Queries are scoped
// to the organization when present, otherwise to the user.
type Actor struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id,omitempty"`
}

// Owner returns the id that store queries scope on.
func (a Actor) Owner() string {
	if a.OrgID != "" {
		return a.OrgID
	}
	return a.UserID
}
