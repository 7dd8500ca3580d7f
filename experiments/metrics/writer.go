package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

type AgentConfig struct {
	ID               int
	Episodes         int
	Duration         time.Duration
	DepthThreshold   int
	PlayoutThreshold int
	Exploration      float64
	Distance         string // "maze" or "manhattan"
	StateKeyed       bool
	Seed             uint64
}

type GameRecord struct {
	ID    int
	Agent int // AgentConfig.ID
	GameMetric
}

type MoveRecord struct {
	Game int // GameRecord.ID
	MoveMetric
}

type agentConfigRow struct {
	ID               int32   `parquet:"id"`
	Episodes         int32   `parquet:"episodes"`
	DurationMs       int64   `parquet:"duration_ms"`
	DepthThreshold   int32   `parquet:"depth_threshold"`
	PlayoutThreshold int32   `parquet:"playout_threshold"`
	Exploration      float64 `parquet:"exploration"`
	Distance         string  `parquet:"distance,dict"`
	StateKeyed       bool    `parquet:"state_keyed"`
	Seed             int64   `parquet:"seed"`
}

type gameRow struct {
	ID         int32  `parquet:"id"`
	Agent      int32  `parquet:"agent"`
	Level      string `parquet:"level,dict"`
	Outcome    string `parquet:"outcome,dict"`
	StartTime  int64  `parquet:"start_time_ms"`
	EndTime    int64  `parquet:"end_time_ms"`
	DurationMs int64  `parquet:"duration_ms"`
	TotalMoves int32  `parquet:"total_moves"`
	Health     int32  `parquet:"health"`
	Food       int32  `parquet:"food"`
	Soda       int32  `parquet:"soda"`
}

type moveRow struct {
	Game         int32  `parquet:"game"`
	Step         int32  `parquet:"step"`
	Direction    string `parquet:"direction,dict"`
	Health       int32  `parquet:"health"`
	DurationUs   int64  `parquet:"duration_us"`
	Episodes     int32  `parquet:"episodes"`
	Expansions   int32  `parquet:"expansions"`
	FullPlayouts int32  `parquet:"full_playouts"`
}

const (
	agentConfigsFile = "agent_configs.parquet"
	gameRecordsFile  = "game_records.parquet"
	moveRecordsFile  = "move_records.parquet"
)

type Writer struct {
	baseDir string
}

// NewWriter creates a timestamped directory for one run under root.
func NewWriter(root, run string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, timestamp+"-"+run)
	err := os.MkdirAll(baseDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	rows := make([]agentConfigRow, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, agentConfigRow{
			ID:               int32(config.ID),
			Episodes:         int32(config.Episodes),
			DurationMs:       config.Duration.Milliseconds(),
			DepthThreshold:   int32(config.DepthThreshold),
			PlayoutThreshold: int32(config.PlayoutThreshold),
			Exploration:      config.Exploration,
			Distance:         config.Distance,
			StateKeyed:       config.StateKeyed,
			Seed:             int64(config.Seed),
		})
	}
	if err := writeRows(filepath.Join(w.baseDir, agentConfigsFile), "agent_configs_v1", rows); err != nil {
		return fmt.Errorf("failed to write agent configs: %w", err)
	}
	return nil
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	rows := make([]gameRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, gameRow{
			ID:         int32(record.ID),
			Agent:      int32(record.Agent),
			Level:      record.Level,
			Outcome:    record.Outcome,
			StartTime:  record.StartTime.UnixMilli(),
			EndTime:    record.EndTime.UnixMilli(),
			DurationMs: record.Duration.Milliseconds(),
			TotalMoves: int32(record.TotalMoves),
			Health:     int32(record.Health),
			Food:       int32(record.Food),
			Soda:       int32(record.Soda),
		})
	}
	if err := writeRows(filepath.Join(w.baseDir, gameRecordsFile), "game_records_v1", rows); err != nil {
		return fmt.Errorf("failed to write game records: %w", err)
	}
	return nil
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	rows := make([]moveRow, 0, len(records))
	for _, record := range records {
		rows = append(rows, moveRow{
			Game:         int32(record.Game),
			Step:         int32(record.Step),
			Direction:    record.Direction,
			Health:       int32(record.Health),
			DurationUs:   record.Duration.Microseconds(),
			Episodes:     int32(record.Episodes),
			Expansions:   int32(record.Expansions),
			FullPlayouts: int32(record.FullPlayouts),
		})
	}
	if err := writeRows(filepath.Join(w.baseDir, moveRecordsFile), "move_records_v1", rows); err != nil {
		return fmt.Errorf("failed to write move records: %w", err)
	}
	return nil
}

// writeRows writes to a temp file and renames it so readers never observe a
// partial file.
func writeRows[T any](path, schema string, rows []T) error {
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}
