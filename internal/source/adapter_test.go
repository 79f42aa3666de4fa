package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/applytrack/internal/domain"
)

const fixtureCSV = "Company,Title,Status\nAcme,Engineer,Applied\n,,\nGlobex,Analyst,Interview\nInitech,Developer,Offer\n"

// drain reads every batch of src.
func drain(t *testing.T, src Source, limit int) ([]domain.ApplicationInput, int) {
	t.Helper()
	var all []domain.ApplicationInput
	cursor := ""
	batches := 0
	for {
		rows, next, err := src.FetchBatch(context.Background(), cursor, limit)
		require.NoError(t, err)
		all = append(all, rows...)
		batches++
		if next == "" {
			return all, batches
		}
		cursor = next
	}
}

func TestSheetAdapter_Paging(t *testing.T) {
	sheet, err := ParseCSV(bytes.NewBufferString(fixtureCSV))
	require.NoError(t, err)
	src := NewSheetSource("upload", sheet)

	rows, batches := drain(t, src, 2)
	require.Len(t, rows, 3)
	assert.Equal(t, 2, batches)
	assert.Equal(t, []string{"Acme", "Globex", "Initech"}, []string{rows[0].Company, rows[1].Company, rows[2].Company})
	assert.Equal(t, 1, src.BlankRows())
	assert.Equal(t, "sheet:upload", src.GetSourceID())

	_, _, err = src.FetchBatch(context.Background(), "abc", 2)
	assert.Error(t, err)

	rest, next, err := src.FetchBatch(context.Background(), "10", 2)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Empty(t, next)
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV), 0644))

	src := NewFileSource(path)
	rows, _ := drain(t, src, 0)
	assert.Len(t, rows, 3)
	assert.Equal(t, "file:apps.csv", src.GetSourceID())

	_, _, err := NewFileSource(filepath.Join(t.TempDir(), "missing.csv")).FetchBatch(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestURLSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/export":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"company":"Acme","title":"Engineer","date_applied":"2024-01-01"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewRemoteClient(5 * time.Second).SetRetryCount(0)

	rows, _ := drain(t, NewURLSource(client, server.URL+"/export"), 10)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].Company)
	require.NotNil(t, rows[0].DateApplied)

	_, _, err := NewURLSource(client, server.URL+"/missing.csv").FetchBatch(context.Background(), "", 10)
	assert.Error(t, err)
}

type memoryStorage struct {
	objects map[string][]byte
}

func (m *memoryStorage) Upload(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryStorage) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.objects[key]
	return ok, nil
}

func TestObjectSource(t *testing.T) {
	store := &memoryStorage{objects: map[string][]byte{"imports/apps.csv": []byte(fixtureCSV)}}

	rows, _ := drain(t, NewObjectSource(store, "imports/apps.csv"), 10)
	assert.Len(t, rows, 3)

	_, _, err := NewObjectSource(store, "imports/none.csv").FetchBatch(context.Background(), "", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object "imports/none.csv" not found`)
}
