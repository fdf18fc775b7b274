package structure

import (
	"context"
	"testing"
	"time"

	"orderBlocks/internal/domain"
	"orderBlocks/internal/ports"
	"orderBlocks/internal/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.errorMsgs = append(m.errorMsgs, msg)
}

func (m *mockLogger) count(msg string) int {
	n := 0
	for _, s := range m.debugMsgs {
		if s == msg {
			n++
		}
	}
	return n
}

var start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type barBuilder struct {
	bars []domain.Bar
}

func (b *barBuilder) add(o, h, l, c float64) *barBuilder {
	b.bars = append(b.bars, domain.Bar{
		Date:  start.AddDate(0, 0, len(b.bars)),
		Open:  o,
		High:  h,
		Low:   l,
		Close: c,
	})
	return b
}

// up adds a bullish bar with half-point wicks.
func (b *barBuilder) up(o, c float64) *barBuilder { return b.add(o, c+0.5, o-0.5, c) }

// down adds a bearish bar with half-point wicks.
func (b *barBuilder) down(o, c float64) *barBuilder { return b.add(o, o+0.5, c-0.5, c) }

func (b *barBuilder) doji(p float64) *barBuilder { return b.add(p, p+0.5, p-0.5, p) }

func (b *barBuilder) series(t *testing.T) *series.Series {
	t.Helper()
	s, err := series.New(b.bars)
	require.NoError(t, err)
	return s
}

// uptrend adds ten rising bullish bars: bar i opens at 100+2i and closes 1.5 higher.
func uptrend(b *barBuilder) *barBuilder {
	for i := 0; i < 10; i++ {
		o := 100 + 2*float64(i)
		b.up(o, o+1.5)
	}
	return b
}

// breakdownSeries is 40 bars: an uptrend, a sharp drop on bars 10-15, then flat bars.
func breakdownSeries(t *testing.T) *series.Series {
	b := uptrend(&barBuilder{})
	b.down(119, 104)
	for i := 0; i < 5; i++ {
		o := 104 - 3*float64(i)
		b.down(o, o-3)
	}
	for len(b.bars) < 40 {
		b.doji(89)
	}
	return b.series(t)
}

// reversalSeries is 20 bars: uptrend, breakdown, recovery, a second
// breakdown and a rally through the second bearish zone.
func reversalSeries(t *testing.T) *series.Series {
	return reversalBars().series(t)
}

func reversalBars() *barBuilder {
	b := uptrend(&barBuilder{})
	b.down(119, 104) // 10: first bearish break
	b.up(104, 106)   // 11
	b.up(106, 108)   // 12
	b.up(108, 110)   // 13
	b.up(110, 112)   // 14
	b.up(112, 114)   // 15: last bullish swing before the second break
	b.down(114, 100) // 16: second bearish break
	b.up(100, 116)   // 17: closes above the second zone's top
	b.doji(116)      // 18
	b.doji(116)      // 19
	return b
}

func windowConfig(candleRange int) Config {
	cfg := DefaultConfig()
	cfg.CandleRange = candleRange
	return cfg
}

func runDetector(t *testing.T, cfg Config, s *series.Series) (*Result, *mockLogger) {
	t.Helper()
	logger := &mockLogger{}
	d, err := New(cfg, logger)
	require.NoError(t, err)
	res, err := d.Run(context.Background(), s)
	require.NoError(t, err)
	return res, logger
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		logger  ports.Logger
		wantErr error
	}{
		{name: "default config", cfg: DefaultConfig(), logger: &mockLogger{}},
		{name: "lower bound", cfg: windowConfig(MinCandleRange), logger: &mockLogger{}},
		{name: "upper bound", cfg: windowConfig(MaxCandleRange), logger: &mockLogger{}},
		{name: "window too small", cfg: windowConfig(4), logger: &mockLogger{}, wantErr: ports.ErrInvalidParameter},
		{name: "window too large", cfg: windowConfig(101), logger: &mockLogger{}, wantErr: ports.ErrInvalidParameter},
		{name: "nil logger", cfg: DefaultConfig(), logger: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.cfg, tt.logger)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.logger == nil:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.cfg.CandleRange, d.Config().CandleRange)
			}
		})
	}
}

func TestNew_FillsPalette(t *testing.T) {
	cfg := windowConfig(10)
	cfg.Palette = Palette{BOSCandle: "orange"}

	d, err := New(cfg, &mockLogger{})
	require.NoError(t, err)
	assert.Equal(t, "orange", d.Config().Palette.BOSCandle)
	assert.Equal(t, "lime", d.Config().Palette.BullishTrend)
}

func TestRun_BearishBreakAnchorsAtLastBullishSwing(t *testing.T) {
	s := breakdownSeries(t)
	res, logger := runDetector(t, windowConfig(5), s)

	require.Len(t, res.BearishZones, 1)
	zone := res.BearishZones[0]
	assert.Equal(t, domain.ZoneBearish, zone.Kind)
	assert.Equal(t, 9, zone.Left)
	assert.Equal(t, s.LastIndex(), zone.Right)
	assert.Equal(t, 120.0, zone.Top)
	assert.Equal(t, 117.5, zone.Bottom)
	assert.Equal(t, "rgba(255,0,0,0.14)", zone.FillColor)
	assert.Empty(t, res.BullishZones)

	require.Len(t, res.BOSLines, 1)
	line := res.BOSLines[0]
	assert.Equal(t, domain.LineBearishBOS, line.Kind)
	assert.Equal(t, 5, line.Left)
	assert.Equal(t, 10, line.Right)
	assert.Equal(t, 107.5, line.Y0)
	assert.Equal(t, 107.5, line.Y1)
	assert.Equal(t, 2, line.Width)

	require.Len(t, res.Colors, s.Len())
	assert.Equal(t, "red", res.Colors[9])
	assert.Equal(t, "yellow", res.Colors[10])
	assert.Equal(t, "red", res.Colors[11])
	assert.Equal(t, "red", res.FinalColor())

	assert.Equal(t, 1, res.Stats.BearishBreaks)
	assert.Equal(t, 1, logger.count("Bearish break of structure"))
}

func TestRun_PreviousDayLines(t *testing.T) {
	s := breakdownSeries(t)
	res, _ := runDetector(t, windowConfig(5), s)

	require.NotNil(t, res.PreviousHigh)
	require.NotNil(t, res.PreviousLow)
	assert.Equal(t, 89.5, res.PreviousHigh.Y0)
	assert.Equal(t, 88.5, res.PreviousLow.Y0)
	assert.Equal(t, 0, res.PreviousHigh.Left)
	assert.Equal(t, s.LastIndex(), res.PreviousHigh.Right)
	assert.Equal(t, "LightBlue", res.PreviousHigh.Color)
	// one update per bar in the tracked tail
	assert.Equal(t, 21, res.Stats.PreviousDayUpdates)
}

func TestRun_BullishBreakOnMitigation(t *testing.T) {
	s := reversalSeries(t)
	res, logger := runDetector(t, windowConfig(5), s)

	// the zone from bar 16 was mitigated on bar 17, the first one is never inspected
	require.Len(t, res.BearishZones, 1)
	assert.Equal(t, 9, res.BearishZones[0].Left)

	require.Len(t, res.BullishZones, 1)
	bull := res.BullishZones[0]
	assert.Equal(t, domain.ZoneBullish, bull.Kind)
	assert.Equal(t, 16, bull.Left)
	assert.Equal(t, s.LastIndex(), bull.Right)
	assert.Equal(t, 99.5, bull.Bottom)
	assert.Equal(t, 114.5, bull.Top)

	require.Len(t, res.BOSLines, 3)
	assert.Equal(t, domain.Line{Kind: domain.LineBearishBOS, Left: 5, Right: 10, Y0: 107.5, Y1: 107.5, Color: "Red", Width: 2}, res.BOSLines[0])
	assert.Equal(t, domain.Line{Kind: domain.LineBearishBOS, Left: 11, Right: 16, Y0: 103.5, Y1: 103.5, Color: "Red", Width: 2}, res.BOSLines[1])
	assert.Equal(t, domain.Line{Kind: domain.LineBullishBOS, Left: 15, Right: 17, Y0: 114.5, Y1: 114.5, Color: "Green", Width: 2}, res.BOSLines[2])

	expectedColors := []string{
		"red", "red", "red", "red", "red", "red", "red", "red", "red", "red",
		"yellow", "red", "red", "red", "red", "red", "yellow", "yellow", "lime", "lime",
	}
	assert.Equal(t, expectedColors, res.Colors)
	assert.Equal(t, "lime", res.FinalColor())

	assert.Equal(t, 2, res.Stats.BearishBreaks)
	assert.Equal(t, 1, res.Stats.BullishBreaks)
	assert.Equal(t, 1, res.Stats.BearishMitigated)
	assert.Equal(t, 1, logger.count("Bullish break of structure"))
}

func TestRun_MitigatedZoneStaysRemoved(t *testing.T) {
	b := reversalBars()
	b.doji(110)      // 20: back below the mitigated zone's top
	b.down(110, 108) // 21
	s := b.series(t)
	res, _ := runDetector(t, windowConfig(5), s)

	require.Len(t, res.BearishZones, 1)
	assert.Equal(t, 9, res.BearishZones[0].Left)
	for _, z := range res.BearishZones {
		assert.NotEqual(t, 15, z.Left)
	}
	assert.Equal(t, 1, res.Stats.BearishMitigated)
	assert.Equal(t, 2, res.Stats.BearishBreaks)
	require.Len(t, res.BullishZones, 1)
	assert.Equal(t, 16, res.BullishZones[0].Left)
	assert.Equal(t, "lime", res.FinalColor())
}

func TestRun_BreakLineStartsAtEarliestEqualLow(t *testing.T) {
	b := &barBuilder{}
	b.add(100, 103, 99, 102) // 0: low 99
	b.add(102, 104, 101, 103)
	b.add(103, 105, 99, 104) // 2: same low as bar 0
	b.add(104, 106, 102, 105)
	b.add(105, 107, 103, 106)
	b.add(106, 107, 98, 100) // 5: breaks below 99
	res, _ := runDetector(t, windowConfig(5), b.series(t))

	require.Len(t, res.BOSLines, 1)
	assert.Equal(t, domain.Line{Kind: domain.LineBearishBOS, Left: 0, Right: 5, Y0: 99, Y1: 99, Color: "Red", Width: 2}, res.BOSLines[0])
	require.Len(t, res.BearishZones, 1)
	assert.Equal(t, 4, res.BearishZones[0].Left)
	assert.Equal(t, 103.0, res.BearishZones[0].Bottom)
	assert.Equal(t, 107.0, res.BearishZones[0].Top)
}

func TestScan_LowestIndexPrefersEarliestTie(t *testing.T) {
	b := &barBuilder{}
	b.doji(10).add(9, 9.5, 8, 9).doji(10).add(9, 9.5, 8, 9).doji(10).doji(10)
	cur := series.NewCursor(b.series(t))
	for cur.Index() < 5 {
		require.True(t, cur.Advance())
	}
	sc := &scan{cfg: windowConfig(5), logger: ports.NopLogger{}, cur: cur}

	assert.Equal(t, 1, sc.lowestIndex(5))
	// bar 0 is outside a window of four
	assert.Equal(t, 1, sc.lowestIndex(4))
	assert.Equal(t, 3, sc.lowestIndex(2))
}

func TestRun_ZoneInvariants(t *testing.T) {
	for _, s := range []*series.Series{breakdownSeries(t), reversalSeries(t)} {
		res, _ := runDetector(t, windowConfig(5), s)
		for _, z := range res.Zones() {
			assert.LessOrEqual(t, z.Bottom, z.Top)
			assert.Equal(t, s.LastIndex(), z.Right)
		}
	}
}

func TestRun_TogglesOff(t *testing.T) {
	s := reversalSeries(t)
	cfg := windowConfig(5)
	cfg.ShowPreviousDay = false
	cfg.ShowBearishBOS = false
	cfg.ShowBullishBOS = false

	res, _ := runDetector(t, cfg, s)

	assert.Empty(t, res.BOSLines)
	assert.Nil(t, res.PreviousHigh)
	assert.Nil(t, res.PreviousLow)
	assert.Len(t, res.BearishZones, 1)
	assert.Len(t, res.BullishZones, 1)
	assert.Equal(t, "lime", res.FinalColor())
}

func TestRun_FlatSeriesCreatesNothing(t *testing.T) {
	b := &barBuilder{}
	for i := 0; i < 30; i++ {
		b.doji(100)
	}
	res, _ := runDetector(t, windowConfig(5), b.series(t))

	assert.Zero(t, res.Stats.BullishSwings)
	assert.Zero(t, res.Stats.BearishSwings)
	assert.Empty(t, res.Zones())
	assert.Empty(t, res.BOSLines)
	for _, c := range res.Colors {
		assert.Equal(t, "red", c)
	}
}

func TestRun_SingleBar(t *testing.T) {
	b := (&barBuilder{}).up(10, 12)
	res, _ := runDetector(t, windowConfig(5), b.series(t))

	assert.Equal(t, 1, res.Stats.Bars)
	assert.Equal(t, []string{"red"}, res.Colors)
	assert.Empty(t, res.Zones())
	assert.Nil(t, res.PreviousHigh)
}

func TestRun_Idempotent(t *testing.T) {
	s := reversalSeries(t)
	d, err := New(windowConfig(5), &mockLogger{})
	require.NoError(t, err)

	first, err := d.Run(context.Background(), s)
	require.NoError(t, err)
	second, err := d.Run(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.Shapes(s), second.Shapes(s))
}

func TestRun_Errors(t *testing.T) {
	d, err := New(DefaultConfig(), &mockLogger{})
	require.NoError(t, err)

	_, err = d.Run(context.Background(), nil)
	assert.ErrorIs(t, err, ports.ErrInvalidInput)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Run(ctx, reversalSeries(t))
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResult_Shapes(t *testing.T) {
	s := reversalSeries(t)
	res, _ := runDetector(t, windowConfig(5), s)

	shapes := res.Shapes(s)
	require.Len(t, shapes, 7)

	assert.Equal(t, domain.ShapeRect, shapes[0].Type)
	assert.Equal(t, string(domain.ZoneBearish), shapes[0].Kind)
	assert.Equal(t, start.AddDate(0, 0, 9), shapes[0].X0)
	assert.Equal(t, start.AddDate(0, 0, 19), shapes[0].X1)

	assert.Equal(t, string(domain.ZoneBullish), shapes[1].Kind)
	for _, sh := range shapes[2:5] {
		assert.Equal(t, domain.ShapeLine, sh.Type)
	}
	assert.Equal(t, string(domain.LinePreviousHigh), shapes[5].Kind)
	assert.Equal(t, string(domain.LinePreviousLow), shapes[6].Kind)
}

func TestScan_BearishMitigationSkipsFirstZone(t *testing.T) {
	s := (&barBuilder{}).doji(10).doji(10).series(t)
	cur := series.NewCursor(s)
	require.True(t, cur.Advance())

	sc := &scan{
		cfg:    windowConfig(5),
		logger: ports.NopLogger{},
		cur:    cur,
		shortZones: []domain.Zone{
			{Kind: domain.ZoneBearish, Left: 0, Top: 10},
			{Kind: domain.ZoneBearish, Left: 0, Top: 20},
			{Kind: domain.ZoneBearish, Left: 1, Top: 30},
		},
		lastLow:  5,
		lastDown: 8,
	}
	sc.cfg.Palette = sc.cfg.Palette.withDefaults()

	sc.mitigateBearishZones(context.Background(), cur.Index(), 35)

	// both later zones are removed but only one bullish zone is opened per bar
	require.Len(t, sc.shortZones, 1)
	assert.Equal(t, 10.0, sc.shortZones[0].Top)
	require.Len(t, sc.longZones, 1)
	assert.Equal(t, 5.0, sc.longZones[0].Bottom)
	assert.Equal(t, 8.0, sc.longZones[0].Top)
	assert.Equal(t, 2, sc.stats.BearishMitigated)
	assert.Equal(t, 1, sc.stats.BullishBreaks)
	require.Len(t, sc.bosLines, 1)
	assert.Equal(t, 1, sc.bosLines[0].Left)
	assert.Equal(t, 30.0, sc.bosLines[0].Y0)
	assert.Equal(t, domain.TrendBullish, sc.mode)
	assert.True(t, sc.bosCandle)
}

func TestScan_BullishInvalidationSkipsFirstZone(t *testing.T) {
	s := (&barBuilder{}).doji(10).series(t)
	sc := &scan{
		cfg:    windowConfig(5),
		logger: ports.NopLogger{},
		cur:    series.NewCursor(s),
		longZones: []domain.Zone{
			{Kind: domain.ZoneBullish, Bottom: 50},
			{Kind: domain.ZoneBullish, Bottom: 100},
			{Kind: domain.ZoneBullish, Bottom: 80},
		},
	}

	sc.invalidateBullishZones(context.Background(), 90)
	require.Len(t, sc.longZones, 2)
	assert.Equal(t, []float64{50, 80}, []float64{sc.longZones[0].Bottom, sc.longZones[1].Bottom})

	sc.invalidateBullishZones(context.Background(), 40)
	require.Len(t, sc.longZones, 1)
	assert.Equal(t, 50.0, sc.longZones[0].Bottom)
	assert.Equal(t, 2, sc.stats.BullishInvalidated)
}
