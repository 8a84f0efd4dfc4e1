package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"jobboard-ledger/internal/ledger"
	"jobboard-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("STORAGE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_DSN", filepath.Join(t.TempDir(), "data", "ledger.db"))
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()

	root, a := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs(args)

	err := root.Execute()
	a.close()

	return out.Bytes(), err
}

func TestCommandsShareState(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "post-job", "Backend Engineer", "--description", "Build APIs", "--employer", "acme", "--fee", "500")
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_id": 1}`, string(out))

	out, err = run(t, "apply", "1", "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"application_id": 1}`, string(out))

	_, err = run(t, "update-status", "1", "Interviewed")
	require.NoError(t, err)

	out, err = run(t, "view-application", "1")
	require.NoError(t, err)
	var app models.JobApplication
	require.NoError(t, json.Unmarshal(out, &app))
	assert.Equal(t, models.StatusInterviewed, app.Status)

	_, err = run(t, "close-job", "1")
	require.NoError(t, err)

	out, err = run(t, "view-job", "1")
	require.NoError(t, err)
	var job models.JobListing
	require.NoError(t, json.Unmarshal(out, &job))
	assert.False(t, job.IsActive)
	assert.Equal(t, models.Amount(500), job.ApplicationFee)

	_, err = run(t, "apply", "1", "bob")
	assert.ErrorIs(t, err, ledger.ErrInvalidState)

	out, err = run(t, "counters")
	require.NoError(t, err)
	assert.JSONEq(t, `{"job_listing_count": 1, "application_count": 1}`, string(out))
}

func TestViewMissingJob(t *testing.T) {
	setupEnv(t)

	_, err := run(t, "view-job", "999")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestRejectsMalformedID(t *testing.T) {
	setupEnv(t)

	for _, arg := range []string{"abc", "18446744073709551616"} {
		_, err := run(t, "close-job", arg)
		require.Error(t, err, arg)
		assert.Contains(t, err.Error(), "invalid id")
	}
}
