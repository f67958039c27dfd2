package rulepacks

import "fmt"

// RulePackage pairs a human-readable rules-package name with the ARN
// Inspector publishes for it in one region.
type RulePackage struct {
	Name string
	ARN  string
}

// Table maps an AWS region name to the rules packages available there.
// The per-region slice order is significant: Resolve returns ARNs in
// exactly this order.
//
// Rules-package ARNs are owned and published by AWS per region; the table
// must be kept in sync with the published list when new regions or
// packages appear. It is plain data passed by value into whatever needs
// it, so tests can substitute their own.
type Table map[string][]RulePackage

// Default returns the built-in table of Amazon-published Inspector Classic
// rules packages.
func Default() Table {
	return Table{
		"us-east-1": {
			{Name: "Common Vulnerabilities and Exposures", ARN: "arn:aws:inspector:us-east-1:316112463485:rulespackage/0-gEjTy7T7"},
			{Name: "CIS Operating System Security Configuration Benchmarks", ARN: "arn:aws:inspector:us-east-1:316112463485:rulespackage/0-rExsr2X8"},
			{Name: "Network Reachability", ARN: "arn:aws:inspector:us-east-1:316112463485:rulespackage/0-PmNV0Tcd"},
			{Name: "Security Best Practices", ARN: "arn:aws:inspector:us-east-1:316112463485:rulespackage/0-R01qwB5Q"},
			{Name: "Runtime Behavior Analysis", ARN: "arn:aws:inspector:us-east-1:316112463485:rulespackage/0-gBONHN9h"},
		},
		"us-west-2": {
			{Name: "Common Vulnerabilities and Exposures", ARN: "arn:aws:inspector:us-west-2:758058086616:rulespackage/0-9hgA516p"},
			{Name: "CIS Operating System Security Configuration Benchmarks", ARN: "arn:aws:inspector:us-west-2:758058086616:rulespackage/0-H5hpSawc"},
			{Name: "Network Reachability", ARN: "arn:aws:inspector:us-west-2:758058086616:rulespackage/0-rD1z6dpl"},
			{Name: "Security Best Practices", ARN: "arn:aws:inspector:us-west-2:758058086616:rulespackage/0-JJOtZiqQ"},
			{Name: "Runtime Behavior Analysis", ARN: "arn:aws:inspector:us-west-2:758058086616:rulespackage/0-vg5GGHSD"},
		},
		"eu-west-1": {
			{Name: "Common Vulnerabilities and Exposures", ARN: "arn:aws:inspector:eu-west-1:357557129151:rulespackage/0-ubA5XvBh"},
			{Name: "CIS Operating System Security Configuration Benchmarks", ARN: "arn:aws:inspector:eu-west-1:357557129151:rulespackage/0-sJBhCr0F"},
			{Name: "Network Reachability", ARN: "arn:aws:inspector:eu-west-1:357557129151:rulespackage/0-SPzU33xe"},
			{Name: "Security Best Practices", ARN: "arn:aws:inspector:eu-west-1:357557129151:rulespackage/0-SnojL3Z6"},
			{Name: "Runtime Behavior Analysis", ARN: "arn:aws:inspector:eu-west-1:357557129151:rulespackage/0-lLmwe1zd"},
		},
		"ap-northeast-1": {
			{Name: "Common Vulnerabilities and Exposures", ARN: "arn:aws:inspector:ap-northeast-1:406045910587:rulespackage/0-gHP9oWNT"},
			{Name: "CIS Operating System Security Configuration Benchmarks", ARN: "arn:aws:inspector:ap-northeast-1:406045910587:rulespackage/0-7WNjqgGu"},
			{Name: "Network Reachability", ARN: "arn:aws:inspector:ap-northeast-1:406045910587:rulespackage/0-YI95DVd7"},
			{Name: "Security Best Practices", ARN: "arn:aws:inspector:ap-northeast-1:406045910587:rulespackage/0-bBUQnxMq"},
			{Name: "Runtime Behavior Analysis", ARN: "arn:aws:inspector:ap-northeast-1:406045910587:rulespackage/0-knGBhqEu"},
		},
	}
}

// Resolve returns the rules-package ARNs registered for region, preserving
// the table's order. Unknown regions are a hard error; there is no default
// or fallback package set.
func (t Table) Resolve(region string) ([]string, error) {
	packs, ok := t[region]
	if !ok {
		return nil, fmt.Errorf("no rules packages registered for region %q", region)
	}
	arns := make([]string, 0, len(packs))
	for _, p := range packs {
		arns = append(arns, p.ARN)
	}
	return arns, nil
}

// Merge returns a copy of t with every region present in extra replaced by
// the entry from extra. Regions only in t are kept unchanged; t itself is
// not modified.
func (t Table) Merge(extra Table) Table {
	merged := make(Table, len(t)+len(extra))
	for region, packs := range t {
		merged[region] = packs
	}
	for region, packs := range extra {
		merged[region] = packs
	}
	return merged
}
