package basecamp

import "encoding/json"

type User struct {
	Id        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// one roster entry from the overview endpoint
type OverviewResult struct {
	User           User     `json:"user"`
	CompletedPaths []string `json:"completed_paths"`
	IsPaid         bool     `json:"is_paid"`
	IsEnrolled     bool     `json:"is_enrolled"`
}

type LevelProgress struct {
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	Approved  bool `json:"approved"`
}

// one pathway enrollment row from the progress endpoint. Progression
// is keyed by level name ("Level 1" .. "Level 5").
type ProgressResult struct {
	User        User                     `json:"user"`
	PathName    string                   `json:"path_name"`
	CourseId    string                   `json:"course_id"`
	Progression map[string]LevelProgress `json:"progression"`
}

// Block is a node of the course content tree returned by the
// progress detail endpoint. Chapters are levels, sequentials are
// projects.
type Block struct {
	Type            string  `json:"type"`
	DisplayName     string  `json:"display_name"`
	Complete        bool    `json:"complete"`
	BlockLibType    string  `json:"block_lib_type"`
	MinReqElectives int     `json:"min_req_electives"`
	Children        []Block `json:"children"`
}

type ProgressDetail struct {
	Blocks Block `json:"blocks"`
}

type ProfileClub struct {
	Uuid string `json:"uuid"`
	Name string `json:"name"`
}

type Profile struct {
	Clubs []ProfileClub `json:"clubs"`
}

func DecodeAll[T any](raws []json.RawMessage) ([]T, error) {
	out := make([]T, len(raws))
	for i, raw := range raws {
		err := json.Unmarshal(raw, &out[i])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
