package archive

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestBuilder_ConfigureDefaults(t *testing.T) {
	b := New("comments")

	cfg := b.Config()
	assert.Equal(t, DefaultAttribute, cfg.Attribute)
	assert.Equal(t, Asc, cfg.Order)
	assert.NotNil(t, cfg.Parser)
	assert.Equal(t, "comments.created_at", b.Column())
}

func TestBuilder_ConfigureIsIdempotent(t *testing.T) {
	b := New("entries", On("created_at"), Ordered(Desc))
	assert.True(t, b.Configured())

	changed := b.Configure(On("replied_on"), Ordered(Asc))
	assert.False(t, changed)
	assert.Equal(t, "created_at", b.Config().Attribute)
	assert.Equal(t, Desc, b.Config().Order)
}

func TestBuilder_ZeroValueUsesDefaults(t *testing.T) {
	var b Builder
	assert.False(t, b.Configured())
	assert.Equal(t, "created_at", b.Column())

	p := b.Newest()
	require.NotNil(t, p.Order)
	assert.Equal(t, "created_at DESC", p.Order.SQL())

	assert.True(t, b.Configure(On("published_at")))
	assert.Equal(t, "published_at", b.Column())
}

func TestBuilder_ByDate_ClauseCounts(t *testing.T) {
	b := New("", On("created_at"), Ordered(Desc))

	tests := []struct {
		name  string
		spec  DateSpec
		parts []Part
		args  []any
	}{
		{"year", YearOf(2007), []Part{PartYear}, []any{2007}},
		{"year and month", MonthOf(2007, 10), []Part{PartYear, PartMonth}, []any{2007, 10}},
		{"full date", DayOf(2007, 10, 2), []Part{PartYear, PartMonth, PartDay}, []any{2007, 10, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := b.ByDate(tt.spec)
			require.NoError(t, err)
			require.Len(t, p.Clauses, len(tt.parts))
			for i, part := range tt.parts {
				assert.Equal(t, part, p.Clauses[i].Part)
				assert.Equal(t, OpEq, p.Clauses[i].Op)
				assert.Equal(t, "created_at", p.Clauses[i].Field)
			}
			assert.Equal(t, tt.args, p.Args())
			assert.Equal(t, p.Placeholders(), len(p.Args()))
		})
	}
}

func TestBuilder_ByDate_Year(t *testing.T) {
	b := New("", On("created_at"), Ordered(Desc))

	p, err := b.ByDate(DateSpec{Year: 2007})
	require.NoError(t, err)

	cond, args := p.SQL(MySQL)
	assert.Equal(t, "year(created_at) = ?", cond)
	assert.Equal(t, []any{2007}, args)
	require.NotNil(t, p.Order)
	assert.Equal(t, "created_at DESC", p.Order.SQL())
}

func TestBuilder_ByDate_StringEqualsStructured(t *testing.T) {
	b := New("entries", Ordered(Desc))

	fromString, err := b.ByDate("2007-07-04")
	require.NoError(t, err)
	fromSpec, err := b.ByDate(DayOf(2007, 7, 4))
	require.NoError(t, err)

	if diff := cmp.Diff(fromSpec, fromString); diff != "" {
		t.Errorf("ByDate mismatch (-spec +string):\n%s", diff)
	}
}

func TestBuilder_ByDate_TimeTruncatesTimeOfDay(t *testing.T) {
	b := New("entries")

	p, err := b.ByDate(time.Date(2007, 7, 4, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []any{2007, 7, 4}, p.Args())
}

func TestBuilder_ByDate_Errors(t *testing.T) {
	b := New("entries")

	_, err := b.ByDate(DateSpec{Month: 5})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDateSpec))
	var specErr *InvalidDateSpecError
	require.ErrorAs(t, err, &specErr)
	assert.Equal(t, 5, specErr.Spec.Month)

	_, err = b.ByDate("not a date")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDateParse))
	var parseErr *DateParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "not a date", parseErr.Input)
	assert.Contains(t, err.Error(), "not a date")

	_, err = b.ByDate(42)
	assert.ErrorIs(t, err, ErrInvalidDateSpec)
}

func TestBuilder_CountVariantsShareClauses(t *testing.T) {
	clock := fixedClock(time.Date(2008, 1, 1, 12, 0, 0, 0, time.UTC))
	b := New("entries", Ordered(Desc), WithClock(clock))

	byDate, err := b.ByDate(MonthOf(2006, 10))
	require.NoError(t, err)
	countByDate, err := b.CountByDate(MonthOf(2006, 10))
	require.NoError(t, err)

	between, err := b.Between("2006-10-03", "2007-12-01")
	require.NoError(t, err)
	countBetween, err := b.CountBetween("2006-10-03", "2007-12-01")
	require.NoError(t, err)

	pairs := []struct {
		name        string
		find, count Predicate
	}{
		{"by date", byDate, countByDate},
		{"recent", b.Recent(30), b.CountRecent(30)},
		{"between", between, countBetween},
	}

	for _, pair := range pairs {
		t.Run(pair.name, func(t *testing.T) {
			assert.NotNil(t, pair.find.Order)
			assert.Nil(t, pair.count.Order)
			if diff := cmp.Diff(pair.find.Clauses, pair.count.Clauses); diff != "" {
				t.Errorf("clauses differ (-find +count):\n%s", diff)
			}
			findSQL, _ := pair.find.SQL(Postgres)
			countSQL, _ := pair.count.SQL(Postgres)
			assert.Equal(t, findSQL, countSQL)
		})
	}
}

func TestBuilder_Recent(t *testing.T) {
	nowTime := time.Date(2008, 3, 15, 9, 30, 0, 0, time.UTC)
	b := New("entries", Ordered(Desc), WithClock(fixedClock(nowTime)))

	p := b.Recent(10)
	require.Len(t, p.Clauses, 1)
	assert.Equal(t, OpGte, p.Clauses[0].Op)
	assert.Equal(t, []any{time.Date(2008, 3, 5, 9, 30, 0, 0, time.UTC)}, p.Args())

	cond, _ := p.SQL(MySQL)
	assert.Equal(t, "entries.created_at >= ?", cond)

	// Recent follows the configured order rather than forcing DESC.
	asc := New("comments", On("replied_on"), WithClock(fixedClock(nowTime)))
	require.NotNil(t, asc.Recent(DefaultRecentDays).Order)
	assert.Equal(t, Asc, asc.Recent(DefaultRecentDays).Order.Direction)
}

func TestBuilder_Recent_CutoffInParserZone(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	nowTime := time.Date(2008, 3, 15, 8, 0, 0, 0, tokyo)

	b := New("entries", WithClock(fixedClock(nowTime)))
	args := b.Recent(1).Args()
	require.Len(t, args, 1)
	cutoff := args[0].(time.Time)
	assert.Equal(t, time.UTC, cutoff.Location())
	assert.True(t, cutoff.Equal(nowTime.AddDate(0, 0, -1)))

	local := New("entries", WithClock(fixedClock(nowTime.UTC())), WithParser(&Parser{Location: tokyo}))
	cutoff = local.Recent(1).Args()[0].(time.Time)
	assert.Equal(t, tokyo, cutoff.Location())
	assert.Equal(t, 14, cutoff.Day())
}

func TestBuilder_ByDate_YearAndDay(t *testing.T) {
	b := New("entries")

	p, err := b.ByDate(DateSpec{Year: 2007, Day: 4})
	require.NoError(t, err)
	require.Len(t, p.Clauses, 2)
	assert.Equal(t, PartYear, p.Clauses[0].Part)
	assert.Equal(t, PartDay, p.Clauses[1].Part)
	assert.Equal(t, []any{2007, 4}, p.Args())
	assert.Equal(t, p.Placeholders(), len(p.Args()))

	cond, _ := p.SQL(MySQL)
	assert.Equal(t, "year(entries.created_at) = ? AND day(entries.created_at) = ?", cond)
}

func TestBuilder_Between(t *testing.T) {
	b := New("", On("created_at"))

	p, err := b.Between("2006-10-03", "2007-12-01")
	require.NoError(t, err)

	cond, args := p.SQL(MySQL)
	assert.Equal(t, "created_at BETWEEN ? AND ?", cond)
	assert.Equal(t, []any{
		time.Date(2006, 10, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2007, 12, 1, 0, 0, 0, 0, time.UTC),
	}, args)
}

func TestBuilder_Between_SymmetricUnderInputType(t *testing.T) {
	b := New("comments", On("replied_on"))

	fromStrings, err := b.Between("10/3/2006", "12/1/2007")
	require.NoError(t, err)
	fromTimes, err := b.Between(
		time.Date(2006, 10, 3, 8, 15, 0, 0, time.UTC),
		time.Date(2007, 12, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	mixed, err := b.Between(time.Date(2006, 10, 3, 0, 0, 0, 0, time.UTC), "2007-12-01")
	require.NoError(t, err)

	if diff := cmp.Diff(fromStrings, fromTimes); diff != "" {
		t.Errorf("strings vs times (-strings +times):\n%s", diff)
	}
	if diff := cmp.Diff(fromStrings, mixed); diff != "" {
		t.Errorf("strings vs mixed (-strings +mixed):\n%s", diff)
	}
}

func TestBuilder_Between_PartialSpecsExpand(t *testing.T) {
	b := New("entries")

	p, err := b.Between("2006", MonthOf(2007, 2))
	require.NoError(t, err)
	assert.Equal(t, []any{
		time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2007, 2, 28, 0, 0, 0, 0, time.UTC),
	}, p.Args())
}

func TestBuilder_Between_Errors(t *testing.T) {
	b := New("entries")

	_, err := b.Between("2007-12-01", "2006-10-03")
	assert.ErrorIs(t, err, ErrInvalidDateSpec)

	_, err = b.Between("garbage", "2006-10-03")
	assert.ErrorIs(t, err, ErrDateParse)

	_, err = b.CountBetween("2006-10-03", DateSpec{Day: 3})
	assert.ErrorIs(t, err, ErrInvalidDateSpec)

	_, err = b.Between(DateSpec{Year: 2006, Day: 3}, "2007")
	assert.ErrorIs(t, err, ErrInvalidDateSpec)
}

func TestBuilder_OldestNewestIgnoreDefaultOrder(t *testing.T) {
	for _, dir := range []Direction{Asc, Desc} {
		b := New("entries", Ordered(dir))

		oldest := b.Oldest()
		assert.Empty(t, oldest.Clauses)
		require.NotNil(t, oldest.Order)
		assert.Equal(t, Asc, oldest.Order.Direction)

		newest := b.Newest()
		assert.Empty(t, newest.Clauses)
		require.NotNil(t, newest.Order)
		assert.Equal(t, Desc, newest.Order.Direction)
		assert.Equal(t, "entries.created_at DESC", newest.Order.SQL())
	}
}

func TestBuilder_DayFirstParser(t *testing.T) {
	b := New("entries", WithParser(&Parser{DayFirst: true}))

	p, err := b.ByDate("4/7/2007")
	require.NoError(t, err)
	assert.Equal(t, []any{2007, 7, 4}, p.Args())
}
