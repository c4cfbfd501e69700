package archive

import (
	"time"
)

const (
	// DefaultAttribute is the archive attribute used when none is configured.
	DefaultAttribute = "created_at"

	// DefaultRecentDays is the window used by callers that do not pick one.
	DefaultRecentDays = 365
)

// Config is the archive configuration of one record type.
type Config struct {
	Attribute string
	Order     Direction
	Parser    *Parser
	Now       func() time.Time
}

// Option adjusts a Config during Configure.
type Option func(*Config)

// On sets the archive attribute.
func On(attribute string) Option {
	return func(c *Config) { c.Attribute = attribute }
}

// Ordered sets the default sort direction.
func Ordered(dir Direction) Option {
	return func(c *Config) { c.Order = dir }
}

// WithParser sets the parser used for string date inputs.
func WithParser(p *Parser) Option {
	return func(c *Config) { c.Parser = p }
}

// WithClock sets the clock used by Recent.
func WithClock(fn func() time.Time) Option {
	return func(c *Config) { c.Now = fn }
}

func defaultConfig() Config {
	return Config{
		Attribute: DefaultAttribute,
		Order:     Asc,
		Parser:    &Parser{},
		Now:       time.Now,
	}
}

// Builder translates date query intents for one record type into Predicates.
//
// Configuration happens once, before any query is built; Builder does no
// locking, so Configure must not race with the query methods.
type Builder struct {
	table string
	cfg   *Config
}

// New returns a Builder for table configured with opts.
func New(table string, opts ...Option) *Builder {
	b := &Builder{table: table}
	b.Configure(opts...)
	return b
}

// Configure stores the archive configuration. Only the first call has any
// effect; later calls return false and leave the configuration untouched.
func (b *Builder) Configure(opts ...Option) bool {
	if b.cfg != nil {
		return false
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Attribute == "" {
		cfg.Attribute = DefaultAttribute
	}
	if cfg.Order == "" {
		cfg.Order = Asc
	}
	if cfg.Parser == nil {
		cfg.Parser = &Parser{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b.cfg = &cfg
	return true
}

// Configured reports whether Configure has run.
func (b *Builder) Configured() bool { return b.cfg != nil }

// Config returns a copy of the active configuration.
func (b *Builder) Config() Config { return *b.config() }

// Table returns the table name used to qualify the attribute.
func (b *Builder) Table() string { return b.table }

// Column returns the table-qualified archive attribute.
func (b *Builder) Column() string {
	if b.table == "" {
		return b.config().Attribute
	}
	return b.table + "." + b.config().Attribute
}

// ByDate matches records whose attribute falls on the given (partial) date.
func (b *Builder) ByDate(date any) (Predicate, error) {
	spec, err := Normalize(date, b.config().Parser)
	if err != nil {
		return Predicate{}, err
	}
	col := b.Column()
	clauses := []Clause{{Field: col, Part: PartYear, Op: OpEq, Args: []any{spec.Year}}}
	if spec.HasMonth() {
		clauses = append(clauses, Clause{Field: col, Part: PartMonth, Op: OpEq, Args: []any{spec.Month}})
	}
	if spec.HasDay() {
		clauses = append(clauses, Clause{Field: col, Part: PartDay, Op: OpEq, Args: []any{spec.Day}})
	}
	return Predicate{Clauses: clauses, Order: b.defaultOrder()}, nil
}

// CountByDate is ByDate without ordering.
func (b *Builder) CountByDate(date any) (Predicate, error) {
	p, err := b.ByDate(date)
	if err != nil {
		return Predicate{}, err
	}
	return p.Counting(), nil
}

// Recent matches records whose attribute is at or after now minus days.
// Days are calendar days in the parser's location. Results use the configured
// default order.
func (b *Builder) Recent(days int) Predicate {
	cfg := b.config()
	cutoff := cfg.Now().In(cfg.Parser.location()).AddDate(0, 0, -days)
	return Predicate{
		Clauses: []Clause{{Field: b.Column(), Op: OpGte, Args: []any{cutoff}}},
		Order:   b.defaultOrder(),
	}
}

// CountRecent is Recent without ordering.
func (b *Builder) CountRecent(days int) Predicate {
	return b.Recent(days).Counting()
}

// Between matches records whose attribute lies in the inclusive range.
func (b *Builder) Between(start, end any) (Predicate, error) {
	r, err := NormalizeRange(start, end, b.config().Parser)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{
		Clauses: []Clause{{Field: b.Column(), Op: OpBetween, Args: []any{r.Start, r.End}}},
		Order:   b.defaultOrder(),
	}, nil
}

// CountBetween is Between without ordering.
func (b *Builder) CountBetween(start, end any) (Predicate, error) {
	p, err := b.Between(start, end)
	if err != nil {
		return Predicate{}, err
	}
	return p.Counting(), nil
}

// Oldest orders ascending on the attribute, whatever the default order.
func (b *Builder) Oldest() Predicate {
	return Predicate{Order: &Order{Field: b.Column(), Direction: Asc}}
}

// Newest orders descending on the attribute, whatever the default order.
func (b *Builder) Newest() Predicate {
	return Predicate{Order: &Order{Field: b.Column(), Direction: Desc}}
}

func (b *Builder) defaultOrder() *Order {
	return &Order{Field: b.Column(), Direction: b.config().Order}
}

var fallbackConfig = defaultConfig()

// config returns the active configuration, falling back to the defaults for a
// Builder that was never configured.
func (b *Builder) config() *Config {
	if b.cfg == nil {
		return &fallbackConfig
	}
	return b.cfg
}
