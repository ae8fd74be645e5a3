package parser

import (
	"fmt"
	"net"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"vulnerability-dashboard/internal/model"
)

type LogParser interface {
	Parse(line string) (*model.LogEntry, error)
}

type activityLineParser struct {
	lineRegex *regexp.Regexp
}

// NewActivityLineParser parses network activity lines of the form
// "<YYYY-MM-DD HH:MM[:SS]> <source ip> <activity text>".
func NewActivityLineParser() LogParser {
	// Groups: 1:Timestamp, 2:Source IP, 3:Activity
	regex := regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}(?::\d{2})?)\s+(\S+)\s+(.*\S)\s*$`)
	return &activityLineParser{lineRegex: regex}
}

func (p *activityLineParser) Parse(line string) (*model.LogEntry, error) {
	matches := p.lineRegex.FindStringSubmatch(line)
	if len(matches) != 4 {
		log.Debug().Str("line", line).Msg("Activity line did not match expected format")
		return nil, fmt.Errorf("line does not match expected format: %s", line)
	}

	sourceIP := matches[2]
	if net.ParseIP(sourceIP) == nil {
		return nil, fmt.Errorf("invalid source ip %q", sourceIP)
	}

	return &model.LogEntry{
		Timestamp: strings.Replace(matches[1], "T", " ", 1),
		SourceIP:  sourceIP,
		Activity:  strings.TrimSpace(matches[3]),
	}, nil
}
