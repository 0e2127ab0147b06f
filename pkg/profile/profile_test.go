package profile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/pepsig/pkg/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	tests := []struct {
		in      string
		wantInt bool
		want    string
	}{
		{"1", true, "1"},
		{"-3", true, "-3"},
		{"+5", true, "5"},
		{"007", true, "7"},
		{"P12345", false, "P12345"},
		{"1.5", false, "1.5"},
		{"99999999999999999999", false, "99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			tok := ParseToken(tt.in)
			assert.Equal(t, tt.wantInt, tok.IsInt())
			assert.Equal(t, tt.want, tok.String())
		})
	}
}

func TestToken_Int(t *testing.T) {
	v, ok := IntToken(42).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(42), v)

	_, ok = StringToken("x").Int()
	assert.False(t, ok)
	assert.Equal(t, KindString, StringToken("x").Kind())
	assert.Equal(t, "int", KindInt.String())
}

func TestParse_Scenario(t *testing.T) {
	ds, err := Parse(strings.NewReader("A 1 2 3\nB 1 20 30\nC 1 2 2\n"))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	keys := make([]string, 0, ds.Len())
	for _, r := range ds.Records() {
		keys = append(keys, r.Key.String())
	}
	assert.Equal(t, []string{"A", "B", "C"}, keys)

	b, ok := ds.Get(StringToken("B"))
	require.True(t, ok)
	assert.Equal(t, []Token{IntToken(1), IntToken(20), IntToken(30)}, b.Values)
	assert.Equal(t, []Token{IntToken(20), IntToken(30)}, b.Tail())
}

func TestParse_TabsAndTrailingSpace(t *testing.T) {
	// profile writer emits "name\tv v v \n"
	ds, err := Parse(strings.NewReader("sp|P1|X\t0 1 2 \n17\t3 4 \n"))
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	r, ok := ds.Get(IntToken(17))
	require.True(t, ok)
	assert.Len(t, r.Values, 2)

	_, ok = ds.Get(StringToken("17"))
	assert.False(t, ok)
}

func TestParse_EmptyLine(t *testing.T) {
	_, err := Parse(strings.NewReader("A 1 2\n   \nB 3 4\n"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.ErrorIs(t, err, ErrEmptyLine)
}

func TestParse_DuplicateKeyReplaces(t *testing.T) {
	ds, err := Parse(strings.NewReader("A 1 2\nB 3 4\nA 5 6 7\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	first := ds.Records()[0]
	assert.Equal(t, "A", first.Key.String())
	assert.Len(t, first.Values, 3)
}

func TestParse_KeyOnly(t *testing.T) {
	ds, err := Parse(strings.NewReader("A\n"))
	require.NoError(t, err)
	r, ok := ds.Get(StringToken("A"))
	require.True(t, ok)
	assert.Empty(t, r.Values)
	assert.Nil(t, r.Tail())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.profiles")
	require.NoError(t, os.WriteFile(path, []byte("A 1 2 3\n"), 0600))

	ds, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "nope")
}

func TestParseFile_EmptyPath(t *testing.T) {
	_, err := ParseFile("")
	assert.Error(t, err)
}

func TestParseFile_EmptyLineCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.profiles")
	require.NoError(t, os.WriteFile(path, []byte("A 1\n\n"), 0600))

	_, err := ParseFile(path)
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, path, pe.Path)
	assert.Equal(t, 2, pe.Line)
}

func TestParseFile_HomeExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "in.profiles"), []byte("A 1 2\n"), 0600))

	ds, err := ParseFile("~/in.profiles")
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestLoad(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.profiles":
			_, _ = io.WriteString(w, "A 1 2 3\nB 1 20 30\n")
		case "/bad.profiles":
			_, _ = io.WriteString(w, "A 1\n\n")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()

	ds, err := Load(ctx, srv.URL+"/ok.profiles")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, err = Load(ctx, srv.URL+"/missing.profiles")
	assert.ErrorIs(t, err, net.ErrorURLNotFound)
	assert.Contains(t, err.Error(), "missing.profiles")

	_, err = Load(ctx, srv.URL+"/bad.profiles")
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, srv.URL+"/bad.profiles", pe.Path)
	assert.Equal(t, 2, pe.Line)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.profiles")
	require.NoError(t, os.WriteFile(path, []byte("A 1 2 3\n"), 0600))

	ds, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}
