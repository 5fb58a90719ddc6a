package dataset

import (
	"bytes"
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"flight-delay/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `Fecha-I,Vlo-I,Ori-I,Des-I,Emp-I,Fecha-O,DIA,MES,AÑO,DIANOM,TIPOVUELO,OPERA,SIGLAORI,SIGLADES
2017-01-01 23:30:00,226,SCEL,KMIA,AAL,2017-01-01 23:33:00,1,1,2017,Domingo,I,American Airlines,Santiago,Miami
2017-07-02 08:10:00,912,SCEL,SCFA,LAW,2017-07-02 08:40:00,2,7,2017,Domingo,N,Latin American Wings,Santiago,Antofagasta
`

func TestReadCSV(t *testing.T) {
	records, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "American Airlines", records[0].Airline)
	assert.Equal(t, "I", records[0].FlightType)
	assert.Equal(t, 1, records[0].Month)
	assert.Equal(t, "2017-01-01 23:30:00", records[0].ScheduledAt)
	assert.Equal(t, "2017-01-01 23:33:00", records[0].ActualAt)

	assert.Equal(t, "Latin American Wings", records[1].Airline)
	assert.Equal(t, 7, records[1].Month)
}

func TestReadCSV_MissingColumn(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("OPERA,TIPOVUELO,MES\nCopa Air,I,3\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), common.ColumnScheduledAt)
}

func TestReadCSV_BadMonth(t *testing.T) {
	data := "OPERA,TIPOVUELO,MES,Fecha-I,Fecha-O\n" +
		"Copa Air,I,3,2017-03-01 10:00:00,2017-03-01 10:05:00\n" +
		"Copa Air,I,march,2017-03-01 10:00:00,2017-03-01 10:05:00\n"

	_, err := ReadCSV(strings.NewReader(data))
	require.Error(t, err)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 2, rowErr.Row)
	assert.Equal(t, common.ColumnMonth, rowErr.Column)
	var numErr *strconv.NumError
	assert.True(t, errors.As(err, &numErr))
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	records := GenerateSample(50, 7)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), strings.Join(Columns, ",")+"\n"))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWriteFile_LoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.csv")
	records := GenerateSample(10, 1)

	require.NoError(t, WriteFile(path, records))

	got, err := LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestGenerateSample(t *testing.T) {
	a := GenerateSample(200, 42)
	b := GenerateSample(200, 42)
	assert.Equal(t, a, b)

	for _, r := range a {
		assert.Contains(t, SampleAirlines, r.Airline)
		assert.Contains(t, []string{"N", "I"}, r.FlightType)
		assert.GreaterOrEqual(t, r.Month, 1)
		assert.LessOrEqual(t, r.Month, 12)
		assert.Equal(t, r.ScheduledAt[5:7], strconv.Itoa(100+r.Month)[1:])
	}
}
