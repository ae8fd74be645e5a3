package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"vulnerability-dashboard/config"
	"vulnerability-dashboard/internal/filestate"
	"vulnerability-dashboard/internal/kafka"
	"vulnerability-dashboard/internal/metrics"
	"vulnerability-dashboard/internal/model"
	"vulnerability-dashboard/internal/parser"
)

// ActivityIngestService tails the activity files of the ingest directory and publishes every new
// line as a logs document.
type ActivityIngestService interface {
	IngestFiles(ctx context.Context) error
}

type activityIngestService struct {
	parser      parser.LogParser
	producer    kafka.EventProducer
	stateMgr    filestate.Manager
	directory   string
	batchSize   int
	now         func() time.Time
	processLock sync.Mutex
}

func NewActivityIngestService(
	cfg *config.Config,
	stateMgr filestate.Manager,
	parser parser.LogParser,
	producer kafka.EventProducer,
) ActivityIngestService {
	batchSize := cfg.Ingest.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	return &activityIngestService{
		parser:    parser,
		producer:  producer,
		stateMgr:  stateMgr,
		directory: cfg.Ingest.LogDirectory,
		batchSize: batchSize,
		now:       time.Now,
	}
}

func (s *activityIngestService) IngestFiles(ctx context.Context) error {
	if !s.processLock.TryLock() {
		log.Warn().Msg("Activity ingest already in progress, skipping run.")
		return nil
	}
	defer s.processLock.Unlock()

	log.Info().Str("directory", s.directory).Msg("Starting activity ingest cycle...")
	startTime := time.Now()

	offsets, err := s.stateMgr.Load()
	if err != nil {
		return fmt.Errorf("failed to load file state: %w", err)
	}

	files, err := s.findActivityFiles()
	if err != nil {
		log.Error().Err(err).Msg("Failed to find activity files")
		return err
	}
	log.Debug().Int("file_count", len(files)).Msg("Found activity files to ingest")
	if dropped := offsets.Prune(files); dropped > 0 {
		log.Info().Int("dropped", dropped).Msg("Forgot offsets of removed activity files")
	}

	var totalSent, totalSkipped int
	for _, path := range files {
		sent, skipped, newOffset, err := s.ingestFile(ctx, path, offsets[path])
		totalSent += sent
		totalSkipped += skipped
		if err != nil {
			// The offset stays where the last published batch ended so unsent lines are retried.
			log.Error().Err(err).Str("file", path).Msg("Failed to ingest activity file")
		}
		offsets[path] = newOffset
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
	}

	if err := s.stateMgr.Save(offsets); err != nil {
		return fmt.Errorf("failed to save file state: %w", err)
	}

	log.Info().
		Int("entries_sent", totalSent).
		Int("lines_skipped", totalSkipped).
		Int("files_processed", len(files)).
		Dur("duration", time.Since(startTime)).
		Msg("Finished activity ingest cycle.")
	return ctx.Err()
}

func (s *activityIngestService) findActivityFiles() ([]string, error) {
	entries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read activity directory: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".log") {
			files = append(files, filepath.Join(s.directory, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ingestFile publishes the complete lines after lastOffset. A trailing line without a newline is
// left for the next cycle. The returned offset covers only lines whose batch was published.
func (s *activityIngestService) ingestFile(ctx context.Context, path string, lastOffset int64) (sent, skipped int, offset int64, err error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, lastOffset, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, 0, lastOffset, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.Size() < lastOffset {
		log.Warn().Str("file", path).Int64("last_offset", lastOffset).Int64("current_size", info.Size()).Msg("File truncated or rotated? Resetting offset.")
		lastOffset = 0
	}
	if _, err := file.Seek(lastOffset, io.SeekStart); err != nil {
		return 0, 0, lastOffset, fmt.Errorf("failed to seek file %s to offset %d: %w", path, lastOffset, err)
	}

	offset = lastOffset
	readOffset := lastOffset
	batch := make([]model.IngestEvent, 0, s.batchSize)

	flush := func() error {
		if len(batch) > 0 {
			if err := s.producer.Produce(ctx, batch); err != nil {
				return fmt.Errorf("kafka produce error: %w", err)
			}
			sent += len(batch)
			batch = batch[:0]
		}
		offset = readOffset
		return nil
	}

	reader := bufio.NewReader(file)
	for {
		if err := ctx.Err(); err != nil {
			return sent, skipped, offset, err
		}

		line, readErr := reader.ReadString('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return sent, skipped, offset, fmt.Errorf("error reading file %s: %w", path, readErr)
		}
		if !strings.HasSuffix(line, "\n") {
			break
		}
		readOffset += int64(len(line))

		text := strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		entry, err := s.parser.Parse(text)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unparseable activity line")
			metrics.IngestDocuments.WithLabelValues(config.CollectionLogs, "invalid").Inc()
			skipped++
			continue
		}
		batch = append(batch, s.toEvent(entry))

		if len(batch) >= s.batchSize {
			if err := flush(); err != nil {
				return sent, skipped, offset, err
			}
		}
	}

	if err := flush(); err != nil {
		return sent, skipped, offset, err
	}
	log.Debug().Str("file", path).Int("entries_sent", sent).Int64("offset", offset).Msg("Finished ingesting file")
	return sent, skipped, offset, nil
}

func (s *activityIngestService) toEvent(entry *model.LogEntry) model.IngestEvent {
	return model.IngestEvent{
		Collection: config.CollectionLogs,
		Document: map[string]any{
			"timestamp": entry.Timestamp,
			"source_ip": entry.SourceIP,
			"activity":  entry.Activity,
		},
		ReceivedAt: s.now().UTC(),
	}
}
