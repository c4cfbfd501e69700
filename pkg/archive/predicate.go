package archive

import (
	"fmt"
	"strings"
)

// Part selects which component of a timestamp a clause compares.
type Part int

const (
	// PartNone compares the column itself.
	PartNone Part = iota
	PartYear
	PartMonth
	PartDay
)

func (p Part) String() string {
	switch p {
	case PartYear:
		return "year"
	case PartMonth:
		return "month"
	case PartDay:
		return "day"
	default:
		return ""
	}
}

// Operator is a comparison operator with a fixed number of bound parameters.
type Operator string

const (
	OpEq      Operator = "="
	OpGte     Operator = ">="
	OpBetween Operator = "BETWEEN"
)

// Arity returns the number of placeholders the operator binds.
func (o Operator) Arity() int {
	if o == OpBetween {
		return 2
	}
	return 1
}

// Direction is a sort direction.
type Direction string

const (
	Asc  Direction = "ASC"
	Desc Direction = "DESC"
)

// ParseDirection accepts asc/desc in any case. Empty input yields Asc.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ASC":
		return Asc, nil
	case "DESC":
		return Desc, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// Clause is one comparison against a (possibly date-part extracted) field.
type Clause struct {
	Field string   `json:"field"`
	Part  Part     `json:"part,omitempty"`
	Op    Operator `json:"op"`
	Args  []any    `json:"args"`
}

// SQL renders the clause with ? placeholders.
func (c Clause) SQL(d Dialect) string {
	expr := c.Field
	if c.Part != PartNone {
		expr = d.Extract(c.Part, c.Field)
	}
	if c.Op == OpBetween {
		return expr + " BETWEEN ? AND ?"
	}
	return expr + " " + string(c.Op) + " ?"
}

// Order is an ordering directive on a single field.
type Order struct {
	Field     string    `json:"field"`
	Direction Direction `json:"direction"`
}

// SQL renders the order as "field DIR".
func (o Order) SQL() string {
	return o.Field + " " + string(o.Direction)
}

// Predicate is a list of ANDed clauses plus an optional ordering. It is a
// plain value: building one never touches a database.
type Predicate struct {
	Clauses []Clause `json:"clauses"`
	Order   *Order   `json:"order,omitempty"`
}

// Args returns the bound parameters of all clauses in placeholder order.
func (p Predicate) Args() []any {
	args := make([]any, 0, p.Placeholders())
	for _, c := range p.Clauses {
		args = append(args, c.Args...)
	}
	return args
}

// Placeholders returns the number of placeholders the clauses render.
func (p Predicate) Placeholders() int {
	n := 0
	for _, c := range p.Clauses {
		n += c.Op.Arity()
	}
	return n
}

// SQL renders the condition and its args. The condition is empty when the
// predicate has no clauses.
func (p Predicate) SQL(d Dialect) (string, []any) {
	if len(p.Clauses) == 0 {
		return "", nil
	}
	parts := make([]string, len(p.Clauses))
	for i, c := range p.Clauses {
		parts[i] = c.SQL(d)
	}
	return strings.Join(parts, " AND "), p.Args()
}

// Counting returns a copy of p without ordering, for count queries. Clauses
// are copied so the two predicates never share argument slices.
func (p Predicate) Counting() Predicate {
	clauses := make([]Clause, len(p.Clauses))
	for i, c := range p.Clauses {
		c.Args = append([]any(nil), c.Args...)
		clauses[i] = c
	}
	return Predicate{Clauses: clauses}
}

// String is a debugging rendering using the MySQL dialect.
func (p Predicate) String() string {
	cond, args := p.SQL(MySQL)
	var b strings.Builder
	b.WriteString(cond)
	if len(args) > 0 {
		fmt.Fprintf(&b, " %v", args)
	}
	if p.Order != nil {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("ORDER BY " + p.Order.SQL())
	}
	return b.String()
}
