package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"

	"github.com/cloudpatrol/awsscan/internal/config"
	"github.com/cloudpatrol/awsscan/internal/engine"
	"github.com/cloudpatrol/awsscan/internal/feeds"
	"github.com/cloudpatrol/awsscan/internal/output"
	"github.com/cloudpatrol/awsscan/internal/providers/aws/assessment"
	"github.com/cloudpatrol/awsscan/internal/providers/aws/common"
	"github.com/cloudpatrol/awsscan/internal/report"
	"github.com/cloudpatrol/awsscan/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "awsscan",
		Short: "Automate EC2 vulnerability assessments with Amazon Inspector",
	}
	root.AddCommand(newScanCmd())
	root.AddCommand(newReportCmd())
	root.AddCommand(newRulesCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newScanCmd() *cobra.Command {
	var (
		profile      string
		region       string
		instanceIDs  []string
		tagKey       string
		tagValue     string
		targetName   string
		templateName string
		duration     int32
		ruleArns     []string
		topicArn     string
		topicName    string
		configPath   string
		reportFmt    string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Tag instances, create an assessment target and template, and start a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if tagKey == "" {
				tagKey = cfg.TagKey
			}
			if topicArn == "" {
				topicArn = cfg.TopicArn
			}

			eng := newEngine(cfg, cfg.FeedBaseURL)
			result, err := eng.RunScan(cmd.Context(), engine.ScanOptions{
				Profile:         profile,
				Region:          region,
				InstanceIDs:     instanceIDs,
				TagKey:          tagKey,
				TagValue:        tagValue,
				TargetName:      targetName,
				TemplateName:    templateName,
				RulePackageArns: ruleArns,
				DurationSeconds: duration,
				TopicArn:        topicArn,
				TopicName:       topicName,
			})
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			if reportFmt == "json" {
				return printJSON(result)
			}
			output.PrintScanResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: the profile's region)")
	cmd.Flags().StringSliceVar(&instanceIDs, "instance-id", nil, "EC2 instance ID(s) to tag before the scan; omit if instances are already tagged")
	cmd.Flags().StringVar(&tagKey, "tag-key", "", "Tag key used to scope the scan (default: "+assessment.DefaultTagKey+")")
	cmd.Flags().StringVar(&tagValue, "tag-value", "", "Tag value used to scope the scan (required)")
	cmd.Flags().StringVar(&targetName, "target-name", "", "Name of the assessment target to create (required)")
	cmd.Flags().StringVar(&templateName, "template-name", "", "Name of the assessment template to create (required)")
	cmd.Flags().Int32Var(&duration, "duration", 0, "Assessment run duration in seconds (default: 3600)")
	cmd.Flags().StringSliceVar(&ruleArns, "rule-arn", nil, "Rules package ARN(s); overrides region-based resolution")
	cmd.Flags().StringVar(&topicArn, "topic-arn", "", "SNS topic ARN for run-lifecycle notifications")
	cmd.Flags().StringVar(&topicName, "topic-name", "", "SNS topic name to create or look up when --topic-arn is not set")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a configuration file (default: "+config.DefaultPath+" when present)")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")

	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		profile    string
		region     string
		runArns    []string
		agentIDs   []string
		severities []string
		outputPath string
		s3Bucket   string
		s3Key      string
		feedURL    string
		configPath string
		reportFmt  string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Harvest assessment findings, enrich CVEs, and generate a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if len(agentIDs) == 0 {
				agentIDs = cfg.AgentIDs
			}
			if len(severities) == 0 {
				severities = cfg.Severities
			}
			if outputPath == "" {
				outputPath = cfg.ReportPath
			}
			if s3Bucket == "" {
				s3Bucket = cfg.S3Bucket
			}
			if s3Key == "" {
				s3Key = cfg.S3Key
			}
			if feedURL == "" {
				feedURL = cfg.FeedBaseURL
			}

			eng := newEngine(cfg, feedURL)
			records, err := eng.GenerateReport(cmd.Context(), engine.ReportOptions{
				Profile:    profile,
				Region:     region,
				AgentIDs:   agentIDs,
				Severities: severities,
				RunArns:    runArns,
				OutputPath: outputPath,
				S3Bucket:   s3Bucket,
				S3Key:      s3Key,
			})
			if err != nil {
				return fmt.Errorf("report failed: %w", err)
			}

			if reportFmt == "json" {
				return printJSON(records)
			}
			output.PrintFindings(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile name (default: uses environment / default profile)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default: the profile's region)")
	cmd.Flags().StringSliceVar(&runArns, "run-arn", nil, "Assessment run ARN(s) to harvest findings from")
	cmd.Flags().StringSliceVar(&agentIDs, "agent-id", nil, "Restrict findings to these EC2 instance ID(s)")
	cmd.Flags().StringSliceVar(&severities, "severity", nil, "Restrict findings to these severities (Low, Medium, High, Informational, Undefined)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write the JSON report to this file path")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Upload the report to this S3 bucket")
	cmd.Flags().StringVar(&s3Key, "s3-key", "", "Object key for the S3 upload")
	cmd.Flags().StringVar(&feedURL, "feed-url", "", "Base URL of the CVE feed (default: "+feeds.DefaultBaseURL+")")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a configuration file (default: "+config.DefaultPath+" when present)")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")

	return cmd
}

func newRulesCmd() *cobra.Command {
	var (
		region     string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rules packages used per region",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			table := cfg.RuleTable()

			regions := make([]string, 0, len(table))
			for r := range table {
				regions = append(regions, r)
			}
			sort.Strings(regions)

			if region != "" {
				if _, err := table.Resolve(region); err != nil {
					return err
				}
				regions = []string{region}
			}

			w := cmd.OutOrStdout()
			for _, r := range regions {
				fmt.Fprintf(w, "%s:\n", r)
				for _, p := range table[r] {
					fmt.Fprintf(w, "  %-38s  %s\n", p.Name, p.ARN)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&region, "region", "", "Show only this region's rules packages")
	cmd.Flags().StringVar(&configPath, "config", "", "Path to a configuration file (default: "+config.DefaultPath+" when present)")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

// loadConfig resolves the optional configuration file. An explicit path
// must exist and parse; the default path is used only when present.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(config.DefaultPath); err != nil {
		return &config.Config{Version: 1}, nil
	}
	return config.Load(config.DefaultPath)
}

// newEngine wires the production engine: the real AWS client provider,
// the rules-package table from cfg, and SDK-backed service and uploader
// factories.
func newEngine(cfg *config.Config, feedURL string) engine.Engine {
	provider := common.NewDefaultAWSClientProvider()
	services := func(awsCfg aws.Config) assessment.Service {
		return assessment.NewDefaultService(awsCfg, feeds.NewHTTPClient(feedURL))
	}
	uploaders := func(awsCfg aws.Config) engine.ReportUploader {
		return report.NewS3Uploader(awsCfg)
	}
	return engine.NewDefaultEngine(provider, cfg.RuleTable(), services, uploaders)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
