package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadProperties parses a Java-properties-style file: key=value lines,
// blank lines and lines starting with "#" ignored, applied over
// DefaultRawOptions.
func LoadProperties(r io.Reader) (RawOptions, error) {
	opts := DefaultRawOptions()
	fields := map[string]func(string) error{
		"apiPublicKey":           func(v string) error { opts.APIPublicKey = v; return nil },
		"apiPrivateKey":          func(v string) error { opts.APIPrivateKey = v; return nil },
		"includeProjectNames":    func(v string) error { opts.IncludeProjectNames = v; return nil },
		"monitoringInterval":     intSetter(&opts.MonitoringInterval),
		"dryRun":                 boolSetter(&opts.DryRun),
		"cpuScaleUpThreshold":    floatSetter(&opts.CPUScaleUpThreshold),
		"cpuScaleUpDuration":     intSetter(&opts.CPUScaleUpDuration),
		"cpuScaleDownThreshold":  floatSetter(&opts.CPUScaleDownThreshold),
		"cpuScaleDownDuration":   intSetter(&opts.CPUScaleDownDuration),
		"enableCpuScaleUp":       boolSetter(&opts.EnableCPUScaleUp),
		"enableCpuScaleDown":     boolSetter(&opts.EnableCPUScaleDown),
		"memoryScaleUpThreshold": floatSetter(&opts.MemoryScaleUpThreshold),
		"memoryScaleUpDuration":  intSetter(&opts.MemoryScaleUpDuration),
		"enableMemoryScaleUp":    boolSetter(&opts.EnableMemoryScaleUp),
		"scaleCooldown":          intSetter(&opts.ScaleCooldown),
		"scaleAllShardsInUnison": boolSetter(&opts.ScaleAllShardsInUnison),
		"allowPerShardScaling":   boolSetter(&opts.AllowPerShardScaling),
		"defaultNodeType":        func(v string) error { opts.DefaultNodeType = v; return nil },
	}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.Index(line, "=")
		if idx < 0 {
			return RawOptions{}, fmt.Errorf("config: malformed line %d: %q", lineNum, line)
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		setter, known := fields[key]
		if !known {
			continue
		}
		if err := setter(value); err != nil {
			return RawOptions{}, fmt.Errorf("config: line %d (%s): %w", lineNum, key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return RawOptions{}, fmt.Errorf("config: reading properties: %w", err)
	}

	return opts, nil
}

func intSetter(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func floatSetter(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func boolSetter(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}
