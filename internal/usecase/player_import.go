package usecase

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
)

const (
	csvColRank = iota
	csvColName
	csvColRace
	csvColNotes
	csvColBucket
)

type importRow struct {
	line   int
	player draft.Player
	bucket bool
}

// ParsePlayersCSV reads rank,name,race,notes[,bucket] rows. A first row whose
// first cell is not a number is treated as a header. Without a bucket column
// players are split into equal tiers by ranking. Ids follow ranking order.
func ParsePlayersCSV(r io.Reader) ([]draft.Player, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows := make([]importRow, 0)
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: read csv: %v", ErrInvalidInput, err)
		}
		line++

		if line == 1 && len(record) > 0 {
			if _, err := strconv.Atoi(strings.TrimSpace(record[csvColRank])); err != nil {
				continue
			}
		}
		if isBlankRecord(record) {
			continue
		}

		row, err := parseImportRow(line, record)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: csv contains no players", ErrInvalidInput)
	}

	withBucket := 0
	seenRanks := make(map[int]int, len(rows))
	for _, row := range rows {
		if row.bucket {
			withBucket++
		}
		if first, dup := seenRanks[row.player.Ranking]; dup {
			return nil, fmt.Errorf("%w: duplicate rank %d on lines %d and %d", ErrInvalidInput, row.player.Ranking, first, row.line)
		}
		seenRanks[row.player.Ranking] = row.line
	}
	if withBucket != 0 && withBucket != len(rows) {
		return nil, fmt.Errorf("%w: bucket column must be set on every row or none", ErrInvalidInput)
	}

	players := make([]draft.Player, 0, len(rows))
	for _, row := range rows {
		players = append(players, row.player)
	}

	if withBucket == 0 {
		draft.AssignBuckets(players)
	} else {
		sort.SliceStable(players, func(i, j int) bool {
			return players[i].Ranking < players[j].Ranking
		})
	}

	for i := range players {
		players[i].ID = i + 1
		if err := players[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}
	return players, nil
}

func parseImportRow(line int, record []string) (importRow, error) {
	if len(record) < 3 {
		return importRow{}, fmt.Errorf("%w: line %d: expected at least rank,name,race", ErrInvalidInput, line)
	}

	rank, err := strconv.Atoi(strings.TrimSpace(record[csvColRank]))
	if err != nil || rank <= 0 {
		return importRow{}, fmt.Errorf("%w: line %d: rank must be a positive integer", ErrInvalidInput, line)
	}

	name := strings.TrimSpace(record[csvColName])
	if name == "" {
		return importRow{}, fmt.Errorf("%w: line %d: name is required", ErrInvalidInput, line)
	}

	race, err := draft.ParseRace(record[csvColRace])
	if err != nil {
		return importRow{}, fmt.Errorf("%w: line %d: %v", ErrInvalidInput, line, err)
	}

	row := importRow{
		line: line,
		player: draft.Player{
			Ranking:     rank,
			DisplayName: name,
			Race:        race,
			Status:      draft.PlayerAvailable,
		},
	}
	if len(record) > csvColNotes {
		row.player.Notes = strings.TrimSpace(record[csvColNotes])
	}
	if len(record) > csvColBucket && strings.TrimSpace(record[csvColBucket]) != "" {
		bucket, err := strconv.Atoi(strings.TrimSpace(record[csvColBucket]))
		if err != nil || bucket < draft.MinBucket || bucket > draft.MaxBucket {
			return importRow{}, fmt.Errorf("%w: line %d: bucket must be within %d..%d", ErrInvalidInput, line, draft.MinBucket, draft.MaxBucket)
		}
		row.player.BucketIndex = bucket
		row.bucket = true
	}

	return row, nil
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
