package draft

import (
	"regexp"
	"strings"
)

var preAssignmentPattern = regexp.MustCompile(`(?i)^(captain|protected)\s*-\s*(.+)$`)

// PreAssignment is a captain or protected directive parsed from player notes.
type PreAssignment struct {
	PlayerID int
	TeamID   int
	Role     Role
}

// ParsePreAssignment reads a "Captain - <Team>" or "Protected - <Team>" note.
// The directive must start at the first character of notes.
func ParsePreAssignment(notes string) (Role, string, bool) {
	match := preAssignmentPattern.FindStringSubmatch(notes)
	if match == nil {
		return "", "", false
	}

	teamName := strings.TrimSpace(match[2])
	if teamName == "" {
		return "", "", false
	}

	return Role(strings.ToLower(match[1])), teamName, true
}

// ResolvePreAssignments matches notes of unassigned players against team names.
// Team names compare case-insensitively and must match exactly.
func ResolvePreAssignments(players []Player, teams []Team) []PreAssignment {
	teamByName := make(map[string]int, len(teams))
	for _, t := range teams {
		teamByName[strings.ToLower(strings.TrimSpace(t.Name))] = t.ID
	}

	out := make([]PreAssignment, 0)
	for _, p := range players {
		if p.TeamID != nil {
			continue
		}
		role, teamName, ok := ParsePreAssignment(p.Notes)
		if !ok {
			continue
		}
		teamID, ok := teamByName[strings.ToLower(teamName)]
		if !ok {
			continue
		}
		out = append(out, PreAssignment{PlayerID: p.ID, TeamID: teamID, Role: role})
	}

	return out
}
