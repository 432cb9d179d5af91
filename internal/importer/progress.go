package importer

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/dgallion1/guidesql/internal/store"
)

// Status is the outcome of an import run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Failure is one section that was not written.
type Failure struct {
	OrderNum int
	Title    string
	Err      error
}

// Progress tracks one import run.
type Progress struct {
	RunID       string    `json:"run_id"`
	Source      string    `json:"source,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
	DocumentID  int64     `json:"document_id"`
	Status      Status    `json:"status"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`

	Total        int `json:"total"`
	Inserted     int `json:"inserted"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
	NotAttempted int `json:"not_attempted"`

	Failures []Failure             `json:"-"`
	Latency  store.LatencySnapshot `json:"latency"`
	Err      error                 `json:"-"` // set when the run could not start
}

func (p *Progress) addFailure(orderNum int, title string, err error) {
	p.Failed++
	p.Failures = append(p.Failures, Failure{OrderNum: orderNum, Title: title, Err: err})
}

func (p *Progress) finish() {
	p.FinishedAt = time.Now()
	written := p.Inserted + p.Skipped
	switch {
	case p.Err != nil:
		p.Status = StatusFailed
	case p.Failed == 0 && p.NotAttempted == 0:
		p.Status = StatusCompleted
	case written > 0:
		p.Status = StatusPartial
	default:
		p.Status = StatusFailed
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
