package logging

import (
	"io"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LoggerSetupParams struct {
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the package level logrus logger used across the service.
func Setup(params LoggerSetupParams) {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	logrus.AddHook(newServiceFieldsHook(params.SentryServerName, params.Environment))

	if params.SentryEnabled {
		setupSentry(params)
	}

	logrus.SetLevel(GetLevel(params.LogLevel))
	logrus.SetOutput(outputWriter(params))
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Environment:      params.Environment,
		Dsn:              params.SentryDSN,
		TracesSampleRate: 1.0,
		ServerName:       params.SentryServerName,
	})
	if err != nil {
		logrus.Errorf("sentry.Init: %s", err)
		return
	}

	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infoln("Sentry set up successfully")
}

func outputWriter(params LoggerSetupParams) io.Writer {
	if params.LogFileName == "" {
		logrus.Println("writing logs only to STDOUT")
		return os.Stdout
	}

	fileName := params.LogFileName
	if !strings.HasSuffix(fileName, ".log") {
		fileName += ".log"
	}

	rotating := &lumberjack.Logger{
		Filename:   fileName,
		MaxSize:    50,    // megabytes
		LocalTime:  false, // false -> use UTC
		Compress:   true,
		MaxBackups: 60,
	}

	if params.LogToStdout {
		logrus.Println("writing logs to file and STDOUT")
		return newTeeWriter(os.Stdout, rotating)
	}
	return rotating
}

// GetLevel maps the configured level name, unknown names fall back to trace.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.TraceLevel
	}
	return parsed
}

// serviceFieldsHook stamps every entry with the service name and environment,
// so entries from several instances can be told apart in the shared log sink.
type serviceFieldsHook struct {
	service string
	env     string
}

func newServiceFieldsHook(service, env string) *serviceFieldsHook {
	return &serviceFieldsHook{
		service: service,
		env:     env,
	}
}

func (h *serviceFieldsHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *serviceFieldsHook) Fire(entry *logrus.Entry) error {
	if h.service != "" {
		if _, ok := entry.Data["service"]; !ok {
			entry.Data["service"] = h.service
		}
	}
	if h.env != "" {
		if _, ok := entry.Data["env"]; !ok {
			entry.Data["env"] = h.env
		}
	}
	return nil
}
