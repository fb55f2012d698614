package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("hello world\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
	if out.String() != "Name?\n> " {
		t.Fatalf("prompt %q", out.String())
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEmptyEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	_, err := GetSimpleText(in, "Name?", &out)
	require.Error(t, err)
}

func TestGetPassword(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })

	readPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	var out bytes.Buffer
	pw, err := GetPassword("Enter password", &out)
	require.NoError(t, err)
	assert.Equal(t, []byte("s3cret"), pw)
	assert.Equal(t, "Enter password: \n", out.String())
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword("Enter password", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}
