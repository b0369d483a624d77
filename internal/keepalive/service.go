package keepalive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/bossprank/github-workflow-manager/internal/shared"
)

const (
	defaultHeartbeatIntervalConstant     = 60 * time.Second
	defaultMaximumLineCountConstant      = 500
	defaultLogPathConstant               = "keepalive.log"
	pollIntervalConfigurationKeyConstant = ".poll_interval"
	logPathConfigurationKeyConstant      = ".log_path"
	maximumLinesConfigurationKeyConstant = ".maximum_lines"
	heartbeatLineTemplateConstant        = "%s heartbeat\n"
	logDirectoryPermissionsConstant      = 0o755
	logFilePermissionsConstant           = 0o644
	newlineByteConstant                  = '\n'
	writerStoppedLogMessageConstant      = "heartbeat writer stopped"
	writerRestartedLogMessageConstant    = "heartbeat writer restarted"
	logRotatedLogMessageConstant         = "heartbeat log rotated"
	appendFailureLogMessageConstant      = "heartbeat append failed"
	rotateFailureLogMessageConstant      = "heartbeat log rotation failed"
	lineCountFailureLogMessageConstant   = "heartbeat log line count failed"
	logPathFieldNameConstant             = "log_path"
	lineCountFieldNameConstant           = "line_count"
)

// Configuration carries the keepalive command settings.
type Configuration struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	LogPath      string        `mapstructure:"log_path"`
	MaximumLines int           `mapstructure:"maximum_lines"`
}

// DefaultConfigurationValues supplies viper defaults under the provided key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	return map[string]any{
		configurationKeyPrefix + pollIntervalConfigurationKeyConstant: defaultHeartbeatIntervalConstant.String(),
		configurationKeyPrefix + logPathConfigurationKeyConstant:      defaultLogPathConstant,
		configurationKeyPrefix + maximumLinesConfigurationKeyConstant: defaultMaximumLineCountConstant,
	}
}

// EffectivePollInterval applies the built-in default when the setting is unset.
func (configuration Configuration) EffectivePollInterval() time.Duration {
	if configuration.PollInterval > 0 {
		return configuration.PollInterval
	}
	return defaultHeartbeatIntervalConstant
}

// EffectiveMaximumLines applies the built-in default when the setting is unset.
func (configuration Configuration) EffectiveMaximumLines() int {
	if configuration.MaximumLines > 0 {
		return configuration.MaximumLines
	}
	return defaultMaximumLineCountConstant
}

// EffectiveLogPath applies the built-in default when the setting is unset.
func (configuration Configuration) EffectiveLogPath() string {
	if len(configuration.LogPath) > 0 {
		return configuration.LogPath
	}
	return defaultLogPathConstant
}

// Service runs the heartbeat writer under a watchdog.
type Service struct {
	logger *zap.Logger
	clock  shared.Clock
}

// NewService builds a keepalive service. A nil logger falls back to a no-op
// logger and a nil clock to the system clock.
func NewService(logger *zap.Logger, clock shared.Clock) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &Service{logger: logger, clock: clock}
}

// RunOptions configures one keepalive run.
type RunOptions struct {
	LogPath      string
	Interval     time.Duration
	MaximumLines int
}

// Run supervises the writer until the context is cancelled: each watchdog
// tick restarts a stopped writer and rotates the log once the line count
// exceeds the maximum. There is no file locking.
func (service *Service) Run(executionContext context.Context, options RunOptions) error {
	heartbeatInterval := options.Interval
	if heartbeatInterval <= 0 {
		heartbeatInterval = defaultHeartbeatIntervalConstant
	}
	maximumLines := options.MaximumLines
	if maximumLines <= 0 {
		maximumLines = defaultMaximumLineCountConstant
	}
	logPath := options.LogPath
	if len(logPath) == 0 {
		logPath = defaultLogPathConstant
	}

	if directoryError := os.MkdirAll(filepath.Dir(logPath), logDirectoryPermissionsConstant); directoryError != nil {
		return directoryError
	}

	writerContext, stopWriter := context.WithCancel(executionContext)
	writerDone := service.startWriter(writerContext, logPath, heartbeatInterval)

	watchdogTicker := time.NewTicker(heartbeatInterval)
	defer watchdogTicker.Stop()

	for {
		select {
		case <-executionContext.Done():
			stopWriter()
			<-writerDone
			return executionContext.Err()
		case <-watchdogTicker.C:
			writerStopped := false
			select {
			case <-writerDone:
				writerStopped = true
			default:
			}

			lineCount, countError := countLogLines(logPath)
			if countError != nil {
				service.logger.Warn(lineCountFailureLogMessageConstant, zap.Error(countError))
			} else if lineCount > maximumLines {
				if !writerStopped {
					stopWriter()
					<-writerDone
					writerStopped = true
				}
				if rotateError := os.Truncate(logPath, 0); rotateError != nil {
					service.logger.Warn(rotateFailureLogMessageConstant, zap.Error(rotateError))
				} else {
					service.logger.Info(logRotatedLogMessageConstant,
						zap.String(logPathFieldNameConstant, logPath),
						zap.Int(lineCountFieldNameConstant, lineCount))
				}
			}

			if writerStopped {
				stopWriter()
				service.logger.Info(writerRestartedLogMessageConstant, zap.String(logPathFieldNameConstant, logPath))
				writerContext, stopWriter = context.WithCancel(executionContext)
				writerDone = service.startWriter(writerContext, logPath, heartbeatInterval)
			}
		}
	}
}

// startWriter launches the heartbeat loop. The returned channel closes when
// the loop exits, which the watchdog treats as a restart signal.
func (service *Service) startWriter(writerContext context.Context, logPath string, heartbeatInterval time.Duration) <-chan struct{} {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer service.logger.Debug(writerStoppedLogMessageConstant, zap.String(logPathFieldNameConstant, logPath))

		if appendError := service.appendHeartbeat(logPath); appendError != nil {
			service.logger.Warn(appendFailureLogMessageConstant, zap.Error(appendError))
			return
		}

		heartbeatTicker := time.NewTicker(heartbeatInterval)
		defer heartbeatTicker.Stop()
		for {
			select {
			case <-writerContext.Done():
				return
			case <-heartbeatTicker.C:
				if appendError := service.appendHeartbeat(logPath); appendError != nil {
					service.logger.Warn(appendFailureLogMessageConstant, zap.Error(appendError))
					return
				}
			}
		}
	}()
	return writerDone
}

func (service *Service) appendHeartbeat(logPath string) error {
	logFile, openError := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, logFilePermissionsConstant)
	if openError != nil {
		return openError
	}
	defer logFile.Close()

	heartbeatLine := fmt.Sprintf(heartbeatLineTemplateConstant, service.clock.Now().UTC().Format(time.RFC3339))
	_, writeError := logFile.WriteString(heartbeatLine)
	return writeError
}

func countLogLines(logPath string) (int, error) {
	logData, readError := os.ReadFile(logPath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return 0, nil
		}
		return 0, readError
	}
	return bytes.Count(logData, []byte{newlineByteConstant}), nil
}
