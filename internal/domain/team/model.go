package team

import "fmt"

// Team is a real football club from the catalog.
type Team struct {
	ID      string
	Name    string
	Short   string
	LogoURL string
	// Tier ranks clubs from 1 (strongest) to 3.
	Tier int
}

func (t Team) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("team id is required")
	}
	if t.Name == "" {
		return fmt.Errorf("team name is required")
	}
	if t.Tier < 1 || t.Tier > 3 {
		return fmt.Errorf("team tier must be between 1 and 3")
	}

	return nil
}
