package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/davidahmann/gate/internal/gatetest"
	"github.com/davidahmann/gate/internal/policy"
)

type cliEnv struct {
	gate    *gatetest.Server
	url     string
	session string
}

func newCLIEnv(t *testing.T, opts ...gatetest.Option) cliEnv {
	t.Helper()
	store := gatetest.NewStore()
	gatetest.Seed(store)
	gate := gatetest.NewServer(store, opts...)
	srv := httptest.NewServer(gate)
	t.Cleanup(srv.Close)

	prevEnv, prevStdin := getenv, stdin
	getenv = func(string) string { return "" }
	t.Cleanup(func() { getenv, stdin = prevEnv, prevStdin })

	return cliEnv{gate: gate, url: srv.URL, session: filepath.Join(t.TempDir(), "session.yaml")}
}

func (e cliEnv) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"gate", "--api", e.url, "--session", e.session}, args...)
	code := run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUsage(t *testing.T) {
	env := newCLIEnv(t)

	code, _, stderr := env.run()
	if code != 2 {
		t.Fatalf("expected code 2, got %d", code)
	}
	if !strings.Contains(stderr, "missing command") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}

	if code, _, _ := env.run("bogus"); code != 2 {
		t.Fatalf("expected code 2 for unknown command, got %d", code)
	}
	if code, _, _ := env.run("show"); code != 2 {
		t.Fatalf("expected code 2 for missing id, got %d", code)
	}
	if code, _, _ := env.run("inbox", "--nope"); code != 2 {
		t.Fatalf("expected code 2 for unknown flag, got %d", code)
	}
}

func TestHealth(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, stderr := env.run("health")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "status=ok") {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
}

func TestNotConfigured(t *testing.T) {
	env := newCLIEnv(t)
	var stdout, stderr bytes.Buffer
	code := run([]string{"gate", "--session", env.session, "inbox"}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected code 1, got %d", code)
	}
	if !strings.Contains(stderr.String(), "Gate API is not configured.") {
		t.Fatalf("unexpected stderr: %q", stderr.String())
	}
	if len(env.gate.Requests()) != 0 {
		t.Fatalf("expected no requests")
	}
}

func TestRoleAndWhoamiPersist(t *testing.T) {
	env := newCLIEnv(t)

	code, stdout, _ := env.run("role")
	if code != 0 || !strings.Contains(stdout, "role=OPS default_stage=DOC_REVIEW") {
		t.Fatalf("unexpected default role: %d %q", code, stdout)
	}
	code, stdout, _ = env.run("role", "risk")
	if code != 0 || !strings.Contains(stdout, "role=RISK default_stage=RISK_REVIEW") {
		t.Fatalf("unexpected role switch: %d %q", code, stdout)
	}
	if code, _, _ := env.run("role", "ADMIN"); code != 2 {
		t.Fatalf("expected code 2 for unknown role, got %d", code)
	}

	_, first, _ := env.run("whoami")
	_, second, _ := env.run("whoami")
	if first != second || !strings.Contains(first, "role=RISK user_id=") {
		t.Fatalf("identity not stable: %q vs %q", first, second)
	}

	raw, err := os.ReadFile(env.session)
	if err != nil {
		t.Fatalf("read session: %v", err)
	}
	if !strings.Contains(string(raw), "gateRole: RISK") || !strings.Contains(string(raw), "gateUserId:") {
		t.Fatalf("unexpected session file: %s", raw)
	}
}

func TestInboxUsesRoleStage(t *testing.T) {
	env := newCLIEnv(t, gatetest.WithListShape(gatetest.ShapeItems))

	code, stdout, stderr := env.run("inbox")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "P-1001") || !strings.Contains(stdout, "P-1002") {
		t.Fatalf("unexpected inbox: %s", stdout)
	}
	if strings.Index(stdout, "P-1002") > strings.Index(stdout, "P-1001") {
		t.Fatalf("expected newest first: %s", stdout)
	}

	code, stdout, _ = env.run("inbox", "--stage", "risk_review", "--json")
	if code != 0 || !strings.Contains(stdout, `"proposalId": "P-1003"`) {
		t.Fatalf("unexpected risk inbox: %d %s", code, stdout)
	}
	if code, _, _ := env.run("inbox", "--stage", "UNDER_EVAL"); code != 2 {
		t.Fatalf("expected code 2 for non-canonical stage, got %d", code)
	}
}

func TestOverview(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, stderr := env.run("overview", "--json")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, `"completed": 2`) || !strings.Contains(stdout, `"metrics": null`) {
		t.Fatalf("unexpected overview: %s", stdout)
	}
}

func TestShow(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, stderr := env.run("show", "P-1001")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	for _, want := range []string{"Proposal P-1001", "Maria Lopez", "C-88", "OPS can decide"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("missing %q in:\n%s", want, stdout)
		}
	}
	if code, _, _ := env.run("show", "missing"); code != 1 {
		t.Fatalf("expected code 1 for missing proposal")
	}
}

func TestShowMember(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, stderr := env.run("show", "P-1001", "--member", "m-3")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	for _, want := range []string{"Member Luz Torres", "https://files.example.com/m-3/shop.jpg"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("missing %q in:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "Maria Lopez") {
		t.Fatalf("expected only the requested member:\n%s", stdout)
	}

	_, stdout, _ = env.run("show", "P-1001", "--member", "nobody")
	if !strings.Contains(stdout, "Member nobody not found") || !strings.Contains(stdout, "Member Maria Lopez (leader)") {
		t.Fatalf("expected leader fallback:\n%s", stdout)
	}
}

func TestDecideRejectRoundTrip(t *testing.T) {
	env := newCLIEnv(t)
	code, stdout, stderr := env.run("decide", "P-1001", "--reject",
		"--reason", strings.ToLower(policy.RejectionReasons(policy.RoleOps)[0]),
		"--comment", "  Missing payslip  ", "--yes")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "decision recorded: REJECT P-1001") || !strings.Contains(stdout, "stage=REJECTED") {
		t.Fatalf("unexpected stdout: %s", stdout)
	}

	p, _ := env.gate.Store.Get("P-1001")
	if len(p.Decisions) != 1 {
		t.Fatalf("expected one decision, got %d", len(p.Decisions))
	}
	d := p.Decisions[0]
	if d.Comment != "Missing payslip" || d.Reasons[0] != policy.RejectionReasons(policy.RoleOps)[0] || d.Stage != "DOC_REVIEW" {
		t.Fatalf("unexpected decision: %+v", d)
	}
}

func TestDecideRepeatedReasonCountsOnce(t *testing.T) {
	env := newCLIEnv(t)
	reason := policy.RejectionReasons(policy.RoleOps)[1]
	code, _, stderr := env.run("decide", "P-1001", "--reject",
		"--reason", reason, "--reason", strings.ToUpper(reason),
		"--comment", "ID photo is cut off", "--yes")
	if code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
	p, _ := env.gate.Store.Get("P-1001")
	if len(p.Decisions) != 1 {
		t.Fatalf("expected one decision, got %d", len(p.Decisions))
	}
	if got := p.Decisions[0].Reasons; len(got) != 1 || got[0] != reason {
		t.Fatalf("unexpected reasons: %v", got)
	}
}

func TestDecideClosedProposal(t *testing.T) {
	env := newCLIEnv(t)
	code, _, stderr := env.run("decide", "P-0990", "--approve", "--yes")
	if code != 1 {
		t.Fatalf("expected code 1, got %d", code)
	}
	if !strings.Contains(stderr, "Proposal P-0990 is already Approved") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
	if env.gate.RequestsTo("POST", "/api/gate/proposals/P-0990/decision") != 0 {
		t.Fatalf("expected no submission")
	}
}

func TestDecideValidationNeverSubmits(t *testing.T) {
	env := newCLIEnv(t)
	code, _, stderr := env.run("decide", "P-1001", "--reject", "--comment", "too short", "--yes")
	if code != 1 {
		t.Fatalf("expected code 1, got %d", code)
	}
	if !strings.Contains(stderr, "reasons:") || !strings.Contains(stderr, "comment:") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
	if env.gate.RequestsTo("POST", "/api/gate/proposals/P-1001/decision") != 0 {
		t.Fatalf("expected no submission")
	}

	if code, _, _ := env.run("decide", "P-1001", "--approve", "--reject"); code != 2 {
		t.Fatalf("expected code 2 for both flags")
	}
	if code, _, _ := env.run("decide", "P-1001", "--reject", "--reason", "not a reason", "--comment", "long enough comment"); code != 2 {
		t.Fatalf("expected code 2 for unknown reason")
	}
}

func TestDecideWrongRole(t *testing.T) {
	env := newCLIEnv(t)
	if code, _, _ := env.run("role", "RISK"); code != 0 {
		t.Fatalf("role switch failed")
	}
	code, _, stderr := env.run("decide", "P-1001", "--approve", "--yes")
	if code != 1 {
		t.Fatalf("expected code 1, got %d", code)
	}
	if !strings.Contains(stderr, "RISK can only make decisions when the proposal is in RISK_REVIEW stage.") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestDecidePromptDeclined(t *testing.T) {
	env := newCLIEnv(t)
	stdin = strings.NewReader("n\n")
	code, stdout, stderr := env.run("decide", "P-1002", "--approve")
	if code != 1 {
		t.Fatalf("expected code 1, got %d", code)
	}
	if !strings.Contains(stdout, "Submit APPROVE for P-1002 at Doc Review?") || !strings.Contains(stderr, "cancelled") {
		t.Fatalf("unexpected output: %q %q", stdout, stderr)
	}
	if env.gate.RequestsTo("POST", "/api/gate/proposals/P-1002/decision") != 0 {
		t.Fatalf("expected no submission")
	}

	stdin = strings.NewReader("yes\n")
	if code, _, stderr := env.run("decide", "P-1002", "--approve"); code != 0 {
		t.Fatalf("expected code 0, got %d: %s", code, stderr)
	}
}

func TestDecideConflict(t *testing.T) {
	var env cliEnv
	env = newCLIEnv(t, gatetest.WithBeforeDecision(func(id string) {
		_ = env.gate.Store.SetStage(id, policy.StageRiskReview)
	}))

	code, _, stderr := env.run("decide", "P-1002", "--approve", "--yes")
	if code != 1 {
		t.Fatalf("expected code 1, got %d: %s", code, stderr)
	}
	if !strings.Contains(stderr, "moved to another stage") || !strings.Contains(stderr, "current stage: Risk Review") {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
	p, _ := env.gate.Store.Get("P-1002")
	if len(p.Decisions) != 0 {
		t.Fatalf("expected no decision recorded, got %d", len(p.Decisions))
	}
}
