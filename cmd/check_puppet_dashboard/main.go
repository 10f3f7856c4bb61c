package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/atc0005/go-nagios"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chr126/nagios-puppet/internal/config"
	"github.com/chr126/nagios-puppet/internal/dashboard"
	"github.com/chr126/nagios-puppet/internal/metrics"
	"github.com/chr126/nagios-puppet/internal/monitoring"
	"github.com/chr126/nagios-puppet/internal/report"
	"github.com/chr126/nagios-puppet/internal/thresholds"
)

const version = "1.0.0"

type options struct {
	configFile      string
	host            string
	port            string
	user            string
	password        string
	realm           string
	ssl             bool
	warning         string
	critical        string
	logLevel        string
	logFormat       string
	metricsTextfile string
}

func main() {
	cmd, _ := newRootCmd()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		// Flag parsing failed before a plugin result existed.
		fmt.Fprintln(os.Stdout, err)
		os.Exit(nagios.StateUNKNOWNExitCode)
	}
}

func newRootCmd() (*cobra.Command, *options) {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "check_puppet_dashboard",
		Short: "Check Puppet Dashboard node counts against thresholds",
		Long: `Fetches the Puppet Dashboard front page, reads the node count of every
status category and compares it against warning and critical thresholds.

Thresholds are six comma separated integers in the order
unresponsive,failed,pending,changed,unchanged,unreported.`,
		Example:       "  check_puppet_dashboard -H dashboard.example.com -w 1,1,5,20,5000,5 -c 5,5,10,50,10000,20",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			plugin := nagios.NewPlugin()
			defer plugin.ReturnCheckResults()

			cfg, err := resolveConfig(cmd.Flags(), opts)
			if err != nil {
				report.ApplyError(plugin, err)
				return
			}

			setupLogging(cfg.Logging)
			runCheck(cmd.Context(), cfg, plugin, nil)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.host, "host", "H", "", "Puppet Dashboard hostname or IP address (required)")
	flags.StringVarP(&opts.port, "port", "p", "80", "Puppet Dashboard port")
	flags.StringVarP(&opts.user, "httpuser", "U", "", "HTTP basic auth user")
	flags.StringVarP(&opts.password, "httppass", "P", "", "HTTP basic auth password")
	flags.StringVarP(&opts.realm, "realm", "r", dashboard.DefaultRealm, "HTTP basic auth realm")
	flags.BoolVarP(&opts.ssl, "ssl", "s", false, "Use https")
	flags.StringVarP(&opts.warning, "warning", "w", "", "Warning thresholds: unresponsive,failed,pending,changed,unchanged,unreported (required)")
	flags.StringVarP(&opts.critical, "critical", "c", "", "Critical thresholds, same order as --warning (required)")
	flags.StringVar(&opts.configFile, "config", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level written to stderr (default warn)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "Also write Prometheus metrics to this file")

	return cmd, opts
}

// resolveConfig loads the config file, if any, and overlays the flags the
// user actually set.
func resolveConfig(flags *pflag.FlagSet, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configFile != "" {
		loaded, err := config.Load(opts.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	overlay := func(name string, dst *string, value string) {
		if flags.Changed(name) {
			*dst = value
		}
	}
	overlay("host", &cfg.Dashboard.Host, opts.host)
	overlay("port", &cfg.Dashboard.Port, opts.port)
	overlay("httpuser", &cfg.Dashboard.User, opts.user)
	overlay("httppass", &cfg.Dashboard.Password, opts.password)
	overlay("realm", &cfg.Dashboard.Realm, opts.realm)
	overlay("warning", &cfg.Thresholds.Warning, opts.warning)
	overlay("critical", &cfg.Thresholds.Critical, opts.critical)
	overlay("log-level", &cfg.Logging.Level, opts.logLevel)
	overlay("log-format", &cfg.Logging.Format, opts.logFormat)
	overlay("metrics-textfile", &cfg.Prometheus.Textfile, opts.metricsTextfile)
	if flags.Changed("ssl") {
		cfg.Dashboard.SSL = opts.ssl
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runCheck validates the arguments, runs the dashboard check and records
// the outcome on plugin. A nil httpClient uses http.DefaultClient.
func runCheck(ctx context.Context, cfg *config.Config, plugin *nagios.Plugin, httpClient *http.Client) {
	log := logrus.WithField("run_id", uuid.New().String())

	args, err := thresholds.Validate(cfg.Thresholds.Warning, cfg.Thresholds.Critical, cfg.Dashboard.Port)
	if err != nil {
		log.WithError(err).Debug("Invalid arguments")
		report.ApplyError(plugin, err)
		return
	}

	client := dashboard.NewClient(dashboard.Options{
		Host:        cfg.Dashboard.Host,
		Port:        args.Port,
		SSL:         cfg.Dashboard.SSL,
		Credentials: cfg.Credentials(),
	}, httpClient)

	log = log.WithField("url", client.URL())
	log.Debug("Checking Puppet Dashboard")

	result := monitoring.NewDashboardCheck(client, args.Thresholds, log).Execute(ctx)

	if err := report.ApplyToPlugin(plugin, result); err != nil {
		log.WithError(err).Warn("Failed to attach perfdata")
	}

	if cfg.Prometheus.Textfile != "" {
		collector := metrics.NewCollector()
		collector.RecordCheckResult(result, time.Now())
		if err := collector.WriteTextfile(cfg.Prometheus.Textfile); err != nil {
			log.WithError(err).Error("Failed to export metrics")
		}
	}
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.WarnLevel
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}
