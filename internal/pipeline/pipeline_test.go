package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterq/pkg/contracts/domain"
	"waterq/pkg/contracts/events"
)

const rawCSV = `STATION CODE,LOCATIONS,STATE,Temp,D.O. (mg/l),PH,CONDUCTIVITY (µhos/cm),B.O.D. (mg/l),NITRATENAN N+ NITRITENANN (mg/l),FECAL COLIFORM (MPN/100ml),TOTAL COLIFORM (MPN/100ml)Mean,year
1001,MANDOVI,GOA,28.5,6.3,7.2,300,1.2,0.5,120,300,2003
1001,MANDOVI,GOA,28.5,6.3,7.2,300,1.2,0.5,120,300,2003
1002,PERIYAR,KERALA,27.1,NAN,6.1,800,4.5,1.1,900,1500,2005
1003,UNKNOWN RIVER,NARNIA,26.0,5.5,8.9,100,2.0,0.2,50,100,2014
`

type recorder struct {
	snaps []events.BuildSnapshot
}

func (r *recorder) Publish(s events.BuildSnapshot) { r.snaps = append(r.snaps, s) }

func TestRun(t *testing.T) {
	rec := &recorder{}
	p := New(nil, rec)

	res, err := p.Run(context.Background(), "water.csv", []byte(rawCSV))
	require.NoError(t, err)

	t.Run("report", func(t *testing.T) {
		assert.Equal(t, 4, res.Report.RawRows)
		assert.Equal(t, 1, res.Report.DuplicatesRemoved)
		assert.Equal(t, 3, res.Report.Rows)
		assert.Equal(t, 1, res.Report.UnresolvedRegions)

		names := make([]string, 0, len(res.Report.Stages))
		for _, s := range res.Report.Stages {
			names = append(names, s.Name)
		}
		assert.Equal(t, StageNames, names)
	})

	t.Run("identity", func(t *testing.T) {
		assert.NotEmpty(t, res.ID)
		assert.Len(t, res.Fingerprint, 64)
		assert.Equal(t, "water.csv", res.SourceFile)
		assert.False(t, res.BuiltAt.IsZero())
	})

	f := res.Frame

	t.Run("schema", func(t *testing.T) {
		for _, name := range []string{
			domain.ColStationCode, domain.ColLocation, domain.ColState,
			domain.ColDO, domain.ColPH, domain.ColConductivity,
			domain.ColDate, domain.ColPHStatus, domain.ColECLevel,
			domain.ColCompliance, domain.ColLat, domain.ColLon,
			domain.AnomalyColumn(domain.ColPH),
			domain.AnomalyColumn(domain.ColFecalColiform),
		} {
			assert.True(t, f.Has(name), "missing column %s", name)
		}
	})

	t.Run("imputation", func(t *testing.T) {
		var do *struct{ missing, imputed int }
		for _, q := range res.Report.Columns {
			if q.Column == domain.ColDO {
				do = &struct{ missing, imputed int }{q.MissingBefore, q.Imputed}
				require.NotNil(t, q.Median)
				assert.InDelta(t, 5.9, *q.Median, 1e-9)
			}
		}
		require.NotNil(t, do)
		assert.Equal(t, 1, do.missing)
		assert.Equal(t, 1, do.imputed)

		col, _ := f.Column(domain.ColDO)
		v, present := col.Number(1)
		assert.True(t, present)
		assert.InDelta(t, 5.9, v, 1e-9)
	})

	t.Run("labels", func(t *testing.T) {
		ph, _ := f.Column(domain.ColPHStatus)
		assert.Equal(t, string(domain.PHNeutral), ph.Text(0))
		assert.Equal(t, string(domain.PHAcidic), ph.Text(1))
		assert.Equal(t, string(domain.PHAlkaline), ph.Text(2))

		ec, _ := f.Column(domain.ColECLevel)
		assert.Equal(t, string(domain.ECMedium), ec.Text(0))
		assert.Equal(t, string(domain.ECHigh), ec.Text(1))
		assert.Equal(t, string(domain.ECLow), ec.Text(2))

		comp, _ := f.Column(domain.ColCompliance)
		assert.Equal(t, string(domain.Compliant), comp.Text(0))
		assert.Equal(t, string(domain.NonCompliant), comp.Text(1))
		assert.Equal(t, string(domain.NonCompliant), comp.Text(2))
	})

	t.Run("coordinates", func(t *testing.T) {
		lat, _ := f.Column(domain.ColLat)
		v, present := lat.Number(0)
		assert.True(t, present)
		assert.Equal(t, 15.2993, v)

		_, present = lat.Number(2)
		assert.False(t, present, "unknown region stays unmapped")
	})

	t.Run("dates", func(t *testing.T) {
		date, _ := f.Column(domain.ColDate)
		assert.Equal(t, "2003-01-01", date.Text(0))
		assert.Equal(t, "2005-01-01", date.Text(1))
		assert.Equal(t, "2014-01-01", date.Text(2))
	})

	t.Run("progress", func(t *testing.T) {
		require.GreaterOrEqual(t, len(rec.snaps), 2+2*len(StageNames))

		first := rec.snaps[0]
		assert.Equal(t, StatusRunning, first.Status)
		for _, s := range first.Stages {
			assert.Equal(t, StatusPending, s.Status)
		}

		last := rec.snaps[len(rec.snaps)-1]
		assert.Equal(t, StatusCompleted, last.Status)
		require.NotNil(t, last.CompletedAt)
		assert.Equal(t, res.ID, last.BuildID)
		assert.Equal(t, res.Fingerprint, last.Fingerprint)
		require.Len(t, last.Stages, len(StageNames))
		for _, s := range last.Stages {
			assert.Equal(t, StatusCompleted, s.Status, "stage %s", s.Name)
		}
		assert.Equal(t, 4, last.Stages[0].Rows, "load sees raw rows")
		assert.Equal(t, 3, last.Stages[3].Rows, "deduplicate drops the copy")
	})
}

func TestRunUnsupportedInput(t *testing.T) {
	rec := &recorder{}
	p := New(nil, rec)

	_, err := p.Run(context.Background(), "water.parquet", []byte("x"))
	require.Error(t, err)

	last := rec.snaps[len(rec.snaps)-1]
	assert.Equal(t, StatusFailed, last.Status)
	assert.Equal(t, StatusFailed, last.Stages[0].Status)
	assert.NotEmpty(t, last.Error)
	require.NotNil(t, last.CompletedAt)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, nil).Run(ctx, "water.csv", []byte(rawCSV))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "water.csv")
	require.NoError(t, os.WriteFile(path, []byte(rawCSV), 0o644))

	res, err := New(nil, nil).RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, res.SourceFile)
	assert.Equal(t, 3, res.Report.Rows)

	t.Run("missing file", func(t *testing.T) {
		_, err := New(nil, nil).RunFile(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		assert.Error(t, err)
	})
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte(rawCSV))
	b := Fingerprint([]byte(rawCSV))
	c := Fingerprint([]byte(rawCSV + "x"))

	assert.Equal(t, a, b, "identical bytes share one fingerprint")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}
