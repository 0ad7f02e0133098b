package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/davidahmann/gate/internal/decision"
	"github.com/davidahmann/gate/internal/display"
	"github.com/davidahmann/gate/internal/gateclient"
	"github.com/davidahmann/gate/internal/overview"
	"github.com/davidahmann/gate/internal/policy"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the Gate API answers",
		Args:  argsUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			health, err := a.client.CheckHealth(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "status=%s service=%s base_url=%s\n",
				display.FormatValue(health.Status), display.FormatValue(health.Service), a.client.BaseURL())
			return nil
		},
	}
}

func newDebugCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Show configuration, identity and API reachability",
		Args:  argsUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := a.session.UserID()
			if err != nil {
				return err
			}
			configured := a.client.Configured() == nil
			fmt.Fprintf(a.stdout, "api_base_url=%s\n", display.FormatValue(a.client.BaseURL()))
			fmt.Fprintf(a.stdout, "api_configured=%t\n", configured)
			fmt.Fprintf(a.stdout, "role=%s\n", a.session.Role())
			fmt.Fprintf(a.stdout, "user_id=%s\n", userID)
			fmt.Fprintf(a.stdout, "session_path=%s\n", a.cfg.Session.Path)
			fmt.Fprintf(a.stdout, "timeout=%s\n", a.cfg.API.Timeout)
			if !configured {
				return a.requireAPI()
			}

			failed := false
			if health, err := a.client.CheckHealth(cmd.Context()); err != nil {
				failed = true
				fmt.Fprintf(a.stdout, "health=error %v\n", err)
			} else {
				fmt.Fprintf(a.stdout, "health=ok status=%s\n", display.FormatValue(health.Status))
			}

			stage := a.session.DefaultStage()
			if list, err := a.client.ListProposals(cmd.Context(), stage); err != nil {
				failed = true
				fmt.Fprintf(a.stdout, "proposals=error stage=%s %v\n", stage, err)
			} else {
				fmt.Fprintf(a.stdout, "proposals=ok stage=%s count=%d\n", stage, len(list))
			}
			if failed {
				return &exitError{code: 1}
			}
			return nil
		},
	}
}

func newRoleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "role [OPS|RISK]",
		Short: "Show or switch the reviewer role",
		Args:  argsUsage(cobra.MaximumNArgs(1)),
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				role, ok := policy.ParseRole(args[0])
				if !ok {
					return usagef("unknown role %q: use OPS or RISK", args[0])
				}
				if err := a.session.SetRole(role); err != nil {
					return err
				}
			}
			role := a.session.Role()
			fmt.Fprintf(a.stdout, "role=%s default_stage=%s\n", role, policy.DefaultStageFor(role))
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the reviewer identity sent with every request",
		Args:  argsUsage(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			userID, err := a.session.UserID()
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "role=%s user_id=%s\n", a.session.Role(), userID)
			return nil
		},
	}
}

func newInboxCmd(a *app) *cobra.Command {
	var (
		stageFlag string
		jsonOut   bool
	)
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "List proposals at a stage, newest first",
		Args:  argsUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			stage := a.session.DefaultStage()
			if stageFlag != "" {
				parsed, ok := policy.ParseStage(stageFlag)
				if !ok {
					return usagef("unknown stage %q", stageFlag)
				}
				stage = parsed
			}
			if err := a.requireAPI(); err != nil {
				return err
			}
			list, err := a.proposals.ListProposals(cmd.Context(), stage)
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a, display.SortBySubmittedDesc(list))
			}
			fmt.Fprintf(a.stdout, "%s %s (%d)\n", display.Title("Inbox"), display.StageBadge(string(stage)), len(list))
			fmt.Fprintln(a.stdout, display.ProposalTable(list))
			return nil
		},
	}
	cmd.Flags().StringVar(&stageFlag, "stage", "", "DOC_REVIEW, RISK_REVIEW, APPROVED or REJECTED (default: the role's stage)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}

func newOverviewCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show proposal counts per stage and monthly metrics",
		Args:  argsUsage(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			ov, err := overview.Builder{
				Lister:  a.proposals,
				Metrics: a.client,
				Period:  "month",
				Logger:  a.logger.Named("overview"),
			}.Build(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a, overviewJSON(ov))
			}
			fmt.Fprint(a.stdout, display.OverviewView(ov))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}

func overviewJSON(ov overview.Overview) map[string]any {
	counts := map[string]any{}
	for _, sc := range ov.Stages {
		if sc.Err != nil {
			counts[string(sc.Stage)] = nil
			continue
		}
		counts[string(sc.Stage)] = sc.Count
	}
	return map[string]any{
		"counts":    counts,
		"completed": ov.Completed(),
		"metrics":   ov.Metrics,
	}
}

func newShowCmd(a *app) *cobra.Command {
	var (
		jsonOut  bool
		memberID string
	)
	cmd := &cobra.Command{
		Use:   "show <proposal-id>",
		Short: "Show one proposal with members, evidence, contract and history",
		Args:  argsUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireAPI(); err != nil {
				return err
			}
			detail, err := a.proposals.GetProposal(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(a, detail)
			}
			if memberID != "" {
				fmt.Fprint(a.stdout, display.MemberView(detail, memberID))
				return nil
			}
			fmt.Fprint(a.stdout, display.ProposalView(detail, a.session.Role()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	cmd.Flags().StringVar(&memberID, "member", "", "show only this member and their evidence")
	return cmd
}

func newReasonsCmd(a *app) *cobra.Command {
	var roleFlag string
	cmd := &cobra.Command{
		Use:   "reasons",
		Short: "List the rejection reasons offered to a role",
		Args:  argsUsage(cobra.NoArgs),
		RunE: func(_ *cobra.Command, _ []string) error {
			role := a.session.Role()
			if roleFlag != "" {
				parsed, ok := policy.ParseRole(roleFlag)
				if !ok {
					return usagef("unknown role %q: use OPS or RISK", roleFlag)
				}
				role = parsed
			}
			for _, reason := range a.reasons.For(role) {
				fmt.Fprintln(a.stdout, reason)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&roleFlag, "role", "", "OPS or RISK (default: the session role)")
	return cmd
}

type decideOptions struct {
	approve bool
	reject  bool
	reasons []string
	comment string
	yes     bool
}

func newDecideCmd(a *app) *cobra.Command {
	var opts decideOptions
	cmd := &cobra.Command{
		Use:   "decide <proposal-id> (--approve | --reject --reason R --comment C)",
		Short: "Approve or reject a proposal at its current stage",
		Args:  argsUsage(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.approve == opts.reject {
				return usagef("choose exactly one of --approve or --reject")
			}
			if err := a.requireAPI(); err != nil {
				return err
			}
			return a.decide(cmd.Context(), args[0], opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.approve, "approve", false, "approve the proposal")
	f.BoolVar(&opts.reject, "reject", false, "reject the proposal")
	f.StringArrayVar(&opts.reasons, "reason", nil, "rejection reason, repeatable; see gate reasons")
	f.StringVar(&opts.comment, "comment", "", "comment; required for a rejection")
	f.BoolVarP(&opts.yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) decide(ctx context.Context, proposalID string, opts decideOptions) error {
	detail, err := a.proposals.GetProposal(ctx, proposalID)
	if err != nil {
		return err
	}
	userID, err := a.session.UserID()
	if err != nil {
		return err
	}
	role := a.session.Role()
	stage := policy.Stage(detail.Stage)
	if policy.IsTerminal(stage) {
		fmt.Fprintf(a.stderr, "Proposal %s is already %s; there is nothing left to decide.\n", proposalID, policy.LabelFor(stage))
		return &exitError{code: 1}
	}

	var conflictStage string
	flow, err := decision.NewFlow(decision.Input{
		ProposalID: proposalID,
		Stage:      stage,
		Role:       role,
		UserID:     userID,
		Reasons:    a.reasons.For(role),
		Submitter:  a.client,
		Logger:     a.logger.Named("decision"),
		Hooks: decision.Hooks{
			OnResolved: func(string) { a.proposals.InvalidateAll() },
			OnConflict: func(id string) {
				if fresh, err := a.proposals.Refetch(ctx, id); err == nil {
					conflictStage = fresh.Stage
				}
			},
		},
	})
	if errors.Is(err, decision.ErrNotPermitted) {
		fmt.Fprintln(a.stderr, policy.DenyReason(role, stage))
		return &exitError{code: 1}
	}
	if err != nil {
		return err
	}

	kind := policy.DecisionApprove
	if opts.reject {
		kind = policy.DecisionReject
	}
	if err := flow.Choose(kind); err != nil {
		return err
	}
	if err := flow.SetComment(opts.comment); err != nil {
		return err
	}
	if kind == policy.DecisionReject {
		picked := map[string]bool{}
		for _, raw := range opts.reasons {
			reason, ok := matchReason(flow.Reasons(), raw)
			if !ok {
				return usagef("unknown reason %q for %s; see `gate reasons`", raw, role)
			}
			// ToggleReason would drop a reason named twice.
			if picked[reason] {
				continue
			}
			picked[reason] = true
			if err := flow.ToggleReason(reason); err != nil {
				return err
			}
		}
	}

	var verr *decision.ValidationError
	if err := flow.RequestConfirmation(); errors.As(err, &verr) {
		for _, field := range []decision.Field{decision.FieldDecision, decision.FieldReasons, decision.FieldComment} {
			if msg, ok := verr.Fields[field]; ok {
				fmt.Fprintf(a.stderr, "%s: %s\n", field, msg)
			}
		}
		return &exitError{code: 1}
	} else if err != nil {
		return err
	}

	if !opts.yes && !a.confirm(flow, detail.ProposalID) {
		_ = flow.Cancel()
		fmt.Fprintln(a.stderr, "cancelled; nothing was submitted")
		return &exitError{code: 1}
	}

	err = flow.Confirm(ctx)
	switch {
	case err == nil:
		fmt.Fprintf(a.stdout, "decision recorded: %s %s at %s\n", kind, proposalID, policy.LabelFor(stage))
		if fresh, err := a.proposals.GetProposal(ctx, proposalID); err == nil {
			fmt.Fprintf(a.stdout, "stage=%s\n", fresh.Stage)
		}
		return nil
	case flow.State() == decision.StateConflict:
		fmt.Fprintln(a.stderr, "This proposal has moved to another stage since you opened it. Nothing was recorded.")
		if conflictStage != "" {
			fmt.Fprintf(a.stderr, "current stage: %s\n", policy.LabelFor(policy.Stage(conflictStage)))
		}
		return &exitError{code: 1}
	default:
		a.logger.Warn("decision failed", zap.String("proposal_id", proposalID), zap.Bool("retryable", gateclient.IsRetryable(err)), zap.Error(err))
		fmt.Fprintf(a.stderr, "decision not recorded: %v\n", err)
		if gateclient.IsRetryable(err) {
			fmt.Fprintln(a.stderr, "The request may be retried.")
		}
		return &exitError{code: 1}
	}
}

func (a *app) confirm(flow *decision.Flow, proposalID string) bool {
	payload := flow.Payload()
	fmt.Fprintf(a.stdout, "Submit %s for %s at %s?\n", payload.Decision, proposalID, policy.LabelFor(policy.Stage(payload.Stage)))
	if len(payload.Reasons) > 0 {
		fmt.Fprintf(a.stdout, "  reasons: %s\n", strings.Join(payload.Reasons, ", "))
	}
	if payload.Comment != "" {
		fmt.Fprintf(a.stdout, "  comment: %s\n", payload.Comment)
	}
	fmt.Fprint(a.stdout, "[y/N] ")

	line, _ := bufio.NewReader(a.stdin).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// matchReason maps user input onto a catalog reason, ignoring case.
func matchReason(catalog []string, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	for _, reason := range catalog {
		if strings.EqualFold(reason, raw) {
			return reason, true
		}
	}
	return "", false
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
