package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const (
	EnvPrefix             = "HYPERFLEET"
	DefaultConfigFileProd = "/etc/hyperfleet/config.yaml"
	DefaultConfigFileDev  = "./configs/config.yaml"
	ConfigEnvVar          = "HYPERFLEET_CONFIG"
)

// NewCommandConfig creates and configures a new Viper instance for a command
// Each command should have its own viper instance to avoid configuration pollution
func NewCommandConfig() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// defineAndBind declares a flag with one of pflag's XxxP methods and binds it
// to viperKey, so flag, env var and file all land on the same key.
func defineAndBind[T any](v *viper.Viper, fs *pflag.FlagSet, define func(name, shorthand string, value T, usage string) *T,
	viperKey, flagName, shorthand string, defaultVal T, usage string) {
	define(flagName, shorthand, defaultVal, usage)
	if err := v.BindPFlag(viperKey, fs.Lookup(flagName)); err != nil {
		panic(fmt.Sprintf("failed to bind flag %s to %s: %v", flagName, viperKey, err))
	}
}

func defineAndBindStringFlag(v *viper.Viper, fs *pflag.FlagSet, viperKey, flagName, shorthand, defaultVal, usage string) {
	defineAndBind(v, fs, fs.StringP, viperKey, flagName, shorthand, defaultVal, usage)
}

func defineAndBindStringSliceFlag(v *viper.Viper, fs *pflag.FlagSet, viperKey, flagName string, defaultVal []string, usage string) {
	defineAndBind(v, fs, fs.StringSliceP, viperKey, flagName, "", defaultVal, usage)
}

func defineAndBindIntFlag(v *viper.Viper, fs *pflag.FlagSet, viperKey, flagName, shorthand string, defaultVal int, usage string) {
	defineAndBind(v, fs, fs.IntP, viperKey, flagName, shorthand, defaultVal, usage)
}

func defineAndBindFloat64Flag(v *viper.Viper, fs *pflag.FlagSet, viperKey, flagName string, defaultVal float64, usage string) {
	defineAndBind(v, fs, fs.Float64P, viperKey, flagName, "", defaultVal, usage)
}

func defineAndBindBoolFlag(v *viper.Viper, fs *pflag.FlagSet, viperKey, flagName, shorthand string, defaultVal bool, usage string) {
	defineAndBind(v, fs, fs.BoolP, viperKey, flagName, shorthand, defaultVal, usage)
}

func defineAndBindDurationFlag(v *viper.Viper, fs *pflag.FlagSet, viperKey, flagName, shorthand string, defaultVal time.Duration, usage string) {
	defineAndBind(v, fs, fs.DurationP, viperKey, flagName, shorthand, defaultVal, usage)
}

// defineConfigFlag adds the --config flag. It is NOT bound to viper, see getConfigFilePath.
func defineConfigFlag(flagset *pflag.FlagSet) {
	if flagset.Lookup("config") == nil {
		flagset.String("config", "", "Config file path")
	}
}

// loadInto loads configuration from multiple sources with proper precedence:
// 1. Command-line flags (highest priority)
// 2. Environment variables (HYPERFLEET_ prefix)
// 3. Configuration files
// 4. Defaults (lowest priority)
//
// Every binary reads the same config file, so sections owned by other
// binaries are ignored instead of rejected.
func loadInto(v *viper.Viper, flags *pflag.FlagSet, cfg interface{}) error {
	ctx := context.Background()

	configFile := getConfigFilePath(flags, v)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
			logger.With(ctx, "config_file", configFile).Info("Config file not found, continuing with flags and environment variables")
		} else {
			logger.With(ctx, "config_file", configFile).Info("Loaded configuration")
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	return nil
}

// getConfigFilePath determines the config file path based on precedence:
// 1. --config flag
// 2. HYPERFLEET_CONFIG environment variable
// 3. Default paths
func getConfigFilePath(flags *pflag.FlagSet, v *viper.Viper) string {
	if flags != nil {
		if configFlag := flags.Lookup("config"); configFlag != nil && configFlag.Changed {
			return configFlag.Value.String()
		}
	}

	if configEnv := os.Getenv(ConfigEnvVar); configEnv != "" {
		return configEnv
	}

	for _, path := range []string{DefaultConfigFileDev, DefaultConfigFileProd} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// validateStruct validates cfg using its struct tags
func validateStruct(cfg interface{}) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError lists every failed field with how to set it.
func formatValidationError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	var b strings.Builder
	b.WriteString("Configuration validation failed:")
	for _, fe := range validationErrors {
		path := getFieldPath(fe)
		fmt.Fprintf(&b, "\n  - Field '%s' failed validation: %s", path, fe.Tag())
		if fe.Param() != "" {
			fmt.Fprintf(&b, " (param: %s)", fe.Param())
		}
		fmt.Fprintf(&b, "\n    Value: %v%s", fe.Value(), getHelpfulHint(path))
	}
	return errors.New(b.String())
}

// getFieldPath replaces the root struct name with "Config"
func getFieldPath(fieldError validator.FieldError) string {
	parts := strings.Split(fieldError.Namespace(), ".")
	if len(parts) > 1 {
		return "Config." + strings.Join(parts[1:], ".")
	}
	return fieldError.Namespace()
}

// getHelpfulHint names the flag, env var and file key of a field path,
// Config.App.Name -> --app-name, HYPERFLEET_APP_NAME, app.name
func getHelpfulHint(fieldPath string) string {
	parts := strings.Split(fieldPath, ".")[1:]
	if len(parts) == 0 {
		return ""
	}
	for i := range parts {
		parts[i] = toSnake(parts[i])
	}
	key := strings.Join(parts, ".")
	flag := "--" + strings.NewReplacer(".", "-", "_", "-").Replace(key)
	env := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	return fmt.Sprintf("\n    Please provide via:\n      • Flag: %s\n      • Environment variable: %s\n      • Config file: %s",
		flag, env, key)
}

// toSnake turns a Go field name into its mapstructure key, HealthCheck -> health_check
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DisplayConfig logs the merged configuration at startup
// Sensitive values are redacted
func DisplayConfig(ctx context.Context, cfg interface{}) {
	out, err := RedactedJSON(cfg)
	if err != nil {
		logger.WithError(ctx, err).Error("Error marshaling config for display")
		return
	}
	logger.Info(ctx, "Merged configuration", "config", json.RawMessage(out))
}

// RedactedJSON returns the configuration as a JSON string with sensitive
// values replaced by "***". cfg must be a pointer to a struct.
func RedactedJSON(cfg interface{}) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("error marshaling config to JSON: %w", err)
	}

	// deep copy through JSON so the live config is never touched
	copyPtr := reflect.New(reflect.TypeOf(cfg).Elem())
	if err := json.Unmarshal(jsonBytes, copyPtr.Interface()); err != nil {
		return "", fmt.Errorf("error copying config for redaction: %w", err)
	}
	redactSensitiveFields(copyPtr.Elem())

	out, err := json.MarshalIndent(copyPtr.Interface(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling config to JSON: %w", err)
	}
	return string(out), nil
}

// redactSensitiveFields recursively walks through a struct and redacts
// any string field whose name matches sensitive patterns
func redactSensitiveFields(v reflect.Value) {
	if !v.IsValid() {
		return
	}

	switch v.Kind() {
	case reflect.Ptr:
		if !v.IsNil() {
			redactSensitiveFields(v.Elem())
		}

	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			field := v.Field(i)
			if !field.CanSet() {
				continue
			}
			if isSensitiveField(t.Field(i).Name) {
				if field.Kind() == reflect.String && field.String() != "" {
					field.SetString("***")
				}
				continue
			}
			redactSensitiveFields(field)
		}

	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			redactSensitiveFields(v.Index(i))
		}
	}
}

// isSensitiveField checks if a field name contains sensitive data keywords
func isSensitiveField(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range []string{"password", "secret", "token", "key", "cert"} {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}
