package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/dataguard/internal/domain/models"
	"github.com/turtacn/dataguard/pkg/constants"
	"github.com/turtacn/dataguard/pkg/errors"
)

type cliEnv struct {
	t       *testing.T
	config  string
	storage string
}

func newCLIEnv(t *testing.T) *cliEnv {
	dir := t.TempDir()
	storage := filepath.Join(dir, "data")
	cfg := `
database:
  driver: sqlite
  sqlite_path: ` + filepath.Join(dir, "dataguard.db") + `
storage:
  backend: file
  root: ` + storage + `
metrics:
  enabled: false
log:
  level: error
`
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return &cliEnv{t: t, config: path, storage: storage}
}

func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *cliEnv) mustRun(stdin string, args ...string) string {
	e.t.Helper()
	out, err := e.run(stdin, args...)
	require.NoError(e.t, err, "dataguard %s", strings.Join(args, " "))
	return out
}

func (e *cliEnv) mustJSON(v interface{}, args ...string) {
	e.t.Helper()
	out := e.mustRun("", append(args, "--json")...)
	require.NoError(e.t, json.Unmarshal([]byte(out), v), out)
}

func TestCLI_TamperLifecycle(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("line1\nline2\n", "commit", "budget.xlsx", "--department", "Finance", "--author", "alice")
	assert.Contains(t, out, "committed budget.xlsx version 1")

	out = env.mustRun("line1\nline2\n", "commit", "budget.xlsx", "--author", "alice")
	assert.Contains(t, out, "no change: budget.xlsx is already at version 1")

	// edit the stored file behind the engine's back
	stored := filepath.Join(env.storage, "documents", "budget.xlsx")
	require.NoError(t, os.WriteFile(stored, []byte("line1\nhacked\n"), 0o644))

	out = env.mustRun("", "verify", "budget.xlsx")
	assert.Contains(t, out, "TAMPERED: budget.xlsx changed outside the engine; recorded as version 2")

	var versions []models.Version
	env.mustJSON(&versions, "versions", "budget.xlsx")
	require.Len(t, versions, 2)
	assert.Equal(t, constants.OriginSystemWrite, versions[0].Origin)
	assert.Equal(t, constants.OriginExternalDetected, versions[1].Origin)

	out = env.mustRun("", "diff", versions[0].ID.String(), versions[1].ID.String())
	assert.Contains(t, out, "- line2\n")
	assert.Contains(t, out, "+ hacked\n")

	var alerts []models.Alert
	env.mustJSON(&alerts, "alerts", "list", "--status", "open")
	require.Len(t, alerts, 1)
	assert.Equal(t, constants.AlertTypeTampering, alerts[0].Type)
	assert.Equal(t, "budget.xlsx", alerts[0].DocumentID)

	out = env.mustRun("", "alerts", "resolve", alerts[0].ID.String(), "--by", "bob")
	assert.Contains(t, out, "is resolved (by bob")

	// the external version is now the head, so a full scan is clean
	out = env.mustRun("", "verify")
	assert.Contains(t, out, "scanned 1 documents")
	assert.Contains(t, out, "0 tampered")

	var summary models.Summary
	env.mustJSON(&summary, "summary")
	assert.Equal(t, 1, summary.Documents)
	assert.Equal(t, 0, summary.OpenAlerts)
}

func TestCLI_CrossDepartmentDownload(t *testing.T) {
	env := newCLIEnv(t)
	env.mustRun("q1 payroll\n", "commit", "payroll.csv", "--department", "Finance")

	out := env.mustRun("", "evaluate",
		"--user", "u-17", "--department", "HR",
		"--action", "download", "--document", "payroll.csv", "--outcome", "denied")
	assert.Contains(t, out, "alert raised")
	assert.Contains(t, out, string(constants.AlertTypeDataLeakAttempt))

	// a second run starts with an empty dedup cache; the stored open alert still absorbs the repeat
	out = env.mustRun("", "evaluate",
		"--user", "u-17", "--department", "HR",
		"--action", "download", "--document", "payroll.csv", "--outcome", "denied")
	assert.Contains(t, out, "alert deduplicated into")
	var open []models.Alert
	env.mustJSON(&open, "alerts", "list", "--status", "open")
	assert.Len(t, open, 1)

	var stats []models.CrossDepartmentStat
	env.mustJSON(&stats, "report", "cross-department", "--days", "7")
	require.Len(t, stats, 1)
	assert.Equal(t, "HR", stats[0].UserDepartment)
	assert.Equal(t, "Finance", stats[0].DocumentDepartment)

	out = env.mustRun("", "retrain")
	assert.Contains(t, out, "model not trained")
}

func TestCLI_Errors(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("", "diff", "not-a-uuid", "also-not")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidArgumentError(err))

	_, err = env.run("", "alerts", "resolve", "nope")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))

	_, err = env.run("", "evaluate", "--user", "u1", "--department", "HR", "--action", "teleport")
	require.Error(t, err)
}

//Personal.AI order the ending
