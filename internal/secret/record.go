// Package secret defines the record hemli keeps in the credential store and
// the freshness rules that decide when it must be fetched again.
package secret

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ServicePrefix is prepended to the namespace to form the credential store service name.
const ServicePrefix = "hemli:"

// MaxTTL is the largest TTL in seconds whose expiry fits in a time.Duration.
const MaxTTL = uint64(math.MaxInt64 / int64(time.Second))

// ID identifies a secret.
type ID struct {
	Namespace string
	Name      string
}

// Service returns the credential store service name for the namespace.
func (id ID) Service() string {
	return ServicePrefix + id.Namespace
}

// Account returns the credential store account name.
func (id ID) Account() string {
	return id.Name
}

func (id ID) String() string {
	return id.Namespace + "/" + id.Name
}

// Mode selects how a source command is executed.
type Mode string

const (
	// ModeShell hands the command to the shell as a single -c argument.
	ModeShell Mode = "sh"
	// ModeDirect splits the command on whitespace and executes it without a shell.
	ModeDirect Mode = "cmd"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeShell || m == ModeDirect
}

// Source is the provenance of a secret: the command that produced it.
type Source struct {
	Command string
	Mode    Mode
}

// State is the freshness of a record at a point in time.
type State int

const (
	Missing State = iota
	Fresh
	Expired
)

func (s State) String() string {
	switch s {
	case Missing:
		return "missing"
	case Fresh:
		return "fresh"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Record is the unit persisted in the credential store.
//
// The expiry is not a field: it is always derived from CreatedAt and TTL.
type Record struct {
	Value     string
	CreatedAt time.Time
	Source    *Source
	TTL       *uint64
}

// Timestamp normalizes t to the resolution stored on the wire.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// New creates a record created at now.
func New(value string, src *Source, ttl *uint64, now time.Time) *Record {
	r := &Record{
		Value:     value,
		CreatedAt: Timestamp(now),
		Source:    cloneSource(src),
	}
	r.SetTTL(ttl)
	return r
}

// SetTTL replaces the TTL; nil clears it. The expiry follows from CreatedAt.
func (r *Record) SetTTL(ttl *uint64) {
	if ttl == nil {
		r.TTL = nil
		return
	}
	v := *ttl
	r.TTL = &v
}

// SetSource replaces the stored provenance.
func (r *Record) SetSource(src *Source) {
	r.Source = cloneSource(src)
}

// ExpiresAt returns CreatedAt + TTL, or nil when the record never expires.
// A TTL above MaxTTL is treated as MaxTTL.
func (r *Record) ExpiresAt() *time.Time {
	if r.TTL == nil {
		return nil
	}
	ttl := *r.TTL
	if ttl > MaxTTL {
		ttl = MaxTTL
	}
	exp := r.CreatedAt.Add(time.Duration(ttl) * time.Second)
	return &exp
}

// IsExpired reports whether now is past the expiry.
func (r *Record) IsExpired(now time.Time) bool {
	exp := r.ExpiresAt()
	return exp != nil && now.After(*exp)
}

// StateOf returns the freshness of r at now; a nil record is Missing.
func StateOf(r *Record, now time.Time) State {
	switch {
	case r == nil:
		return Missing
	case r.IsExpired(now):
		return Expired
	default:
		return Fresh
	}
}

// wireRecord is the bit-exact JSON shape stored in the credential store.
type wireRecord struct {
	Value         string     `json:"value" yaml:"value"`
	CreatedAt     time.Time  `json:"created_at" yaml:"created_at"`
	SourceCommand *string    `json:"source_command" yaml:"source_command"`
	SourceType    *Mode      `json:"source_type" yaml:"source_type"`
	TTLSeconds    *uint64    `json:"ttl_seconds" yaml:"ttl_seconds"`
	ExpiresAt     *time.Time `json:"expires_at" yaml:"expires_at"`
}

func (r *Record) wire() wireRecord {
	w := wireRecord{
		Value:      r.Value,
		CreatedAt:  Timestamp(r.CreatedAt),
		TTLSeconds: r.TTL,
		ExpiresAt:  r.ExpiresAt(),
	}
	if r.Source != nil {
		cmd, mode := r.Source.Command, r.Source.Mode
		w.SourceCommand = &cmd
		w.SourceType = &mode
	}
	return w
}

// Fields returns the record in its stored shape, for rendering.
func (r *Record) Fields() any {
	return r.wire()
}

// MarshalJSON implements json.Marshaler.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

// UnmarshalJSON implements json.Unmarshaler. A stored expires_at is ignored and
// recomputed from created_at and ttl_seconds.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.CreatedAt.IsZero() {
		return fmt.Errorf("record has no created_at")
	}
	if w.TTLSeconds != nil && *w.TTLSeconds > MaxTTL {
		return fmt.Errorf("ttl_seconds %d exceeds maximum %d", *w.TTLSeconds, MaxTTL)
	}
	r.Value = w.Value
	r.CreatedAt = Timestamp(w.CreatedAt)
	r.TTL = w.TTLSeconds
	r.Source = nil
	if w.SourceCommand != nil && w.SourceType != nil {
		if !w.SourceType.Valid() {
			return fmt.Errorf("unknown source_type %q", *w.SourceType)
		}
		r.Source = &Source{Command: *w.SourceCommand, Mode: *w.SourceType}
	}
	return nil
}

// Encode serializes r for the credential store.
func Encode(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// Decode parses a record read from the credential store.
func Decode(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func cloneSource(src *Source) *Source {
	if src == nil {
		return nil
	}
	c := *src
	return &c
}
