package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"ajochain/native/savings"
)

// planFixture is the YAML description of a plan accepted by "plan create".
type planFixture struct {
	Name               string `yaml:"name" json:"name"`
	Description        string `yaml:"description" json:"description"`
	TotalParticipants  uint32 `yaml:"totalParticipants" json:"totalParticipants"`
	ContributionAmount string `yaml:"contributionAmount" json:"contributionAmount"`
	Frequency          string `yaml:"frequency" json:"frequency"`
	DurationMonths     uint32 `yaml:"durationMonths" json:"durationMonths"`
	TrustScoreRequired uint64 `yaml:"trustScoreRequired" json:"trustScoreRequired"`
	AllowPartial       bool   `yaml:"allowPartial" json:"allowPartial"`
	Asset              string `yaml:"asset" json:"asset"`
}

func loadPlanFixture(path string) (*planFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fixture planFixture
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := savings.ParseFrequency(fixture.Frequency); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if strings.TrimSpace(fixture.ContributionAmount) == "" {
		return nil, fmt.Errorf("%s: contributionAmount is required", path)
	}
	return &fixture, nil
}

func runPlanCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, planUsage())
		return 1
	}
	switch args[0] {
	case "create":
		return runPlanCreate(args[1:], stdout, stderr)
	case "get":
		return runPlanByID("savings_getPlan", args[1:], stdout, stderr)
	case "list":
		return runPlanList(args[1:], stdout, stderr)
	case "join":
		return runPlanByID("savings_requestToJoin", args[1:], stdout, stderr)
	case "approve":
		return runPlanResolve("savings_approveJoinRequest", args[1:], stdout, stderr)
	case "deny":
		return runPlanResolve("savings_denyJoinRequest", args[1:], stdout, stderr)
	case "contribute":
		return runPlanContribute(args[1:], stdout, stderr)
	case "close":
		return runPlanByID("savings_closeCycle", args[1:], stdout, stderr)
	case "pause":
		return runPlanByID("savings_pausePlan", args[1:], stdout, stderr)
	case "reactivate":
		return runPlanByID("savings_reactivatePlan", args[1:], stdout, stderr)
	case "participants":
		return runPlanByID("savings_participants", args[1:], stdout, stderr)
	case "requests":
		return runPlanByID("savings_joinRequests", args[1:], stdout, stderr)
	case "status":
		return runPlanStatus(args[1:], stdout, stderr)
	case "by-creator":
		return runPlansByAddress("savings_plansByCreator", args[1:], stdout, stderr)
	case "by-participant":
		return runPlansByAddress("savings_plansByParticipant", args[1:], stdout, stderr)
	case "trust":
		return runPlansByAddress("savings_trustScore", args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown plan subcommand: %s\n", args[0])
		fmt.Fprintln(stderr, planUsage())
		return 1
	}
}

func planUsage() string {
	return "Usage: ajo-cli plan <create|get|list|join|approve|deny|contribute|close|pause|reactivate|participants|requests|status|by-creator|by-participant|trust> [flags]"
}

func runPlanCreate(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("plan create", stderr)
	file := fs.String("file", "", "YAML plan fixture")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*file) == "" {
		return printError(stderr, "--file is required")
	}
	fixture, err := loadPlanFixture(*file)
	if err != nil {
		return printError(stderr, err.Error())
	}
	return callAndPrint("savings_createPlan", fixture, stdout, stderr)
}

func runPlanByID(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr)
	id := fs.Uint64("id", 0, "plan identifier")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == 0 {
		return printError(stderr, "--id is required")
	}
	return callAndPrint(method, map[string]uint64{"planId": *id}, stdout, stderr)
}

func runPlanList(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("plan list", stderr)
	page := fs.Uint64("page", 1, "page number, starting at 1")
	size := fs.Uint64("size", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return callAndPrint("savings_listPlans", map[string]uint64{"page": *page, "pageSize": *size}, stdout, stderr)
}

func runPlanResolve(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr)
	id := fs.Uint64("id", 0, "plan identifier")
	requester := fs.String("requester", "", "bech32 account of the requester")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == 0 {
		return printError(stderr, "--id is required")
	}
	if strings.TrimSpace(*requester) == "" {
		return printError(stderr, "--requester is required")
	}
	return callAndPrint(method, map[string]interface{}{"planId": *id, "requester": strings.TrimSpace(*requester)}, stdout, stderr)
}

func runPlanContribute(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("plan contribute", stderr)
	id := fs.Uint64("id", 0, "plan identifier")
	amount := fs.String("amount", "", "amount in the plan's asset base units")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == 0 {
		return printError(stderr, "--id is required")
	}
	if strings.TrimSpace(*amount) == "" {
		return printError(stderr, "--amount is required")
	}
	return callAndPrint("savings_contribute", map[string]interface{}{"planId": *id, "amount": strings.TrimSpace(*amount)}, stdout, stderr)
}

func runPlanStatus(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("plan status", stderr)
	id := fs.Uint64("id", 0, "plan identifier")
	address := fs.String("address", "", "bech32 account of the participant")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *id == 0 || strings.TrimSpace(*address) == "" {
		return printError(stderr, "--id and --address are required")
	}
	return callAndPrint("savings_cycleStatus", map[string]interface{}{"planId": *id, "address": strings.TrimSpace(*address)}, stdout, stderr)
}

func runPlansByAddress(method string, args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet(method, stderr)
	address := fs.String("address", "", "bech32 account")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*address) == "" {
		return printError(stderr, "--address is required")
	}
	return callAndPrint(method, map[string]string{"address": strings.TrimSpace(*address)}, stdout, stderr)
}
