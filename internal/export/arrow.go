package export

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"

	"github.com/nvandessel/cuesched/internal/schedule"
)

// Schema metadata keys carried alongside the trial columns.
const (
	metaSeed    = "cuesched.seed"
	metaColor1  = "cuesched.palette.color1"
	metaColor2  = "cuesched.palette.color2"
	metaLabel1  = "cuesched.palette.label1"
	metaLabel2  = "cuesched.palette.label2"
	metaVersion = "cuesched.format_version"
)

const arrowFormatVersion = "1"

func trialFields() []arrow.Field {
	return []arrow.Field{
		{Name: Columns[0], Type: arrow.PrimitiveTypes.Int32},
		{Name: Columns[1], Type: arrow.PrimitiveTypes.Int32},
		{Name: Columns[2], Type: arrow.BinaryTypes.String},
		{Name: Columns[3], Type: arrow.PrimitiveTypes.Int32},
		{Name: Columns[4], Type: arrow.PrimitiveTypes.Float64},
		{Name: Columns[5], Type: arrow.PrimitiveTypes.Float64},
		{Name: Columns[6], Type: arrow.PrimitiveTypes.Float64},
		{Name: Columns[7], Type: arrow.PrimitiveTypes.Int32},
		{Name: Columns[8], Type: arrow.FixedWidthTypes.Boolean},
		{Name: Columns[9], Type: arrow.PrimitiveTypes.Int32},
	}
}

func trialSchema(res *schedule.Result) *arrow.Schema {
	md := arrow.NewMetadata(
		[]string{metaVersion, metaSeed, metaColor1, metaColor2, metaLabel1, metaLabel2},
		[]string{
			arrowFormatVersion,
			strconv.FormatInt(res.Seed, 10),
			res.Palette.Colors[0], res.Palette.Colors[1],
			res.Palette.Labels[0], res.Palette.Labels[1],
		},
	)
	return arrow.NewSchema(trialFields(), &md)
}

// WriteArrow writes the trials of res as an Arrow IPC file holding a single
// record batch. The seed and palette travel as schema metadata.
func WriteArrow(w io.Writer, res *schedule.Result) error {
	if res == nil {
		return fmt.Errorf("no schedule to export")
	}

	mem := memory.NewGoAllocator()
	schema := trialSchema(res)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	b.Reserve(len(res.Trials))

	for _, t := range res.Trials {
		b.Field(0).(*array.Int32Builder).Append(int32(t.Episode))
		b.Field(1).(*array.Int32Builder).Append(int32(t.TrialInEpisode))
		b.Field(2).(*array.StringBuilder).Append(t.CueColor)
		b.Field(3).(*array.Int32Builder).Append(int32(t.CueIdentity))
		b.Field(4).(*array.Float64Builder).Append(t.TargetAngle)
		b.Field(5).(*array.Float64Builder).Append(t.ActualAngle)
		b.Field(6).(*array.Float64Builder).Append(t.AngleNoise)
		b.Field(7).(*array.Int32Builder).Append(int32(t.TrialIndex))
		b.Field(8).(*array.BooleanBuilder).Append(t.Oddball)
		b.Field(9).(*array.Int32Builder).Append(int32(t.OutcomeOccurred))
	}

	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to close arrow writer: %w", err)
	}
	return nil
}

// ReadArrow reads a file written by WriteArrow. The returned result carries
// the trials, seed, palette and episode lengths; the episode plan and
// identity assignment are not part of the Arrow file.
func ReadArrow(r io.Reader) (*schedule.Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read arrow file: %w", err)
	}

	fr, err := ipc.NewFileReader(bytes.NewReader(data), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, fmt.Errorf("failed to open arrow file: %w", err)
	}
	defer fr.Close()

	schema := fr.Schema()
	if err := checkSchema(schema); err != nil {
		return nil, err
	}

	res := &schedule.Result{}
	md := schema.Metadata()
	if v, ok := metaValue(md, metaSeed); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed metadata %q: %w", v, err)
		}
		res.Seed = seed
	}
	res.Palette.Colors[0], _ = metaValue(md, metaColor1)
	res.Palette.Colors[1], _ = metaValue(md, metaColor2)
	res.Palette.Labels[0], _ = metaValue(md, metaLabel1)
	res.Palette.Labels[1], _ = metaValue(md, metaLabel2)

	for i := 0; i < fr.NumRecords(); i++ {
		rec, err := fr.Record(i)
		if err != nil {
			return nil, fmt.Errorf("failed to read record batch %d: %w", i, err)
		}
		res.Trials = append(res.Trials, trialsFromRecord(rec)...)
	}

	res.EpisodeLengths = episodeLengths(res.Trials)
	return res, nil
}

func checkSchema(schema *arrow.Schema) error {
	want := trialFields()
	if len(schema.Fields()) != len(want) {
		return fmt.Errorf("arrow file has %d columns, want %d", len(schema.Fields()), len(want))
	}
	for i, f := range schema.Fields() {
		if f.Name != want[i].Name || !arrow.TypeEqual(f.Type, want[i].Type) {
			return fmt.Errorf("arrow column %d is %s %s, want %s %s", i, f.Name, f.Type, want[i].Name, want[i].Type)
		}
	}
	return nil
}

func trialsFromRecord(rec arrow.Record) []schedule.Trial {
	episode := rec.Column(0).(*array.Int32)
	inEpisode := rec.Column(1).(*array.Int32)
	color := rec.Column(2).(*array.String)
	identity := rec.Column(3).(*array.Int32)
	target := rec.Column(4).(*array.Float64)
	actual := rec.Column(5).(*array.Float64)
	noise := rec.Column(6).(*array.Float64)
	index := rec.Column(7).(*array.Int32)
	oddball := rec.Column(8).(*array.Boolean)
	outcome := rec.Column(9).(*array.Int32)

	n := int(rec.NumRows())
	trials := make([]schedule.Trial, n)
	for i := 0; i < n; i++ {
		trials[i] = schedule.Trial{
			Episode:         int(episode.Value(i)),
			TrialInEpisode:  int(inEpisode.Value(i)),
			CueColor:        color.Value(i),
			CueIdentity:     int(identity.Value(i)),
			TargetAngle:     target.Value(i),
			ActualAngle:     actual.Value(i),
			AngleNoise:      noise.Value(i),
			TrialIndex:      int(index.Value(i)),
			Oddball:         oddball.Value(i),
			OutcomeOccurred: int(outcome.Value(i)),
		}
	}
	return trials
}

// episodeLengths recovers per-episode lengths from the trial rows and fills
// in each trial's EpisodeLength, which the tabular formats do not carry.
func episodeLengths(trials []schedule.Trial) []int {
	var lengths []int
	for _, t := range trials {
		for len(lengths) < t.Episode {
			lengths = append(lengths, 0)
		}
		if t.Episode > 0 {
			lengths[t.Episode-1]++
		}
	}
	for i := range trials {
		if e := trials[i].Episode; e > 0 {
			trials[i].EpisodeLength = lengths[e-1]
		}
	}
	return lengths
}

func metaValue(md arrow.Metadata, key string) (string, bool) {
	i := md.FindKey(key)
	if i < 0 {
		return "", false
	}
	return md.Values()[i], true
}
