package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DB      DB
	RMQ     RMQ
	Server  Server
	Routing Routing
	Push    Push
	JWT     JWT
}

type DB struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
}

type RMQ struct {
	Host     string
	Port     int
	User     string
	Password string
}

type Server struct {
	Port int
}

type Routing struct {
	BaseURL        string
	TimeoutSeconds int
}

type Push struct {
	URL string
}

type JWT struct {
	Secret string
}

const defaultRoutingTimeoutSeconds = 15

func Load(cfgPath string) (*Config, error) {
	f, err := os.Open(cfgPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		lineNo      int
		section     string
		cfg         Config
		seen        = map[string]map[string]bool{}
		requiredDB  = []string{"host", "port", "user", "password", "database"}
		requiredRMQ = []string{"host", "port", "user", "password"}
		requiredSrv = []string{"port"}
		requiredRt  = []string{"base_url"}
		requiredJWT = []string{"secret"}
	)

	cfg.Routing.TimeoutSeconds = defaultRoutingTimeoutSeconds

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, ":") && !strings.Contains(line, " ") {
			sec := strings.TrimSuffix(line, ":")
			switch sec {
			case "database", "rabbitmq", "server", "routing", "push", "jwt":
				section = sec
			default:
				return nil, fmt.Errorf("line %d: unknown section %s", lineNo, sec)
			}
			if seen[section] != nil {
				return nil, fmt.Errorf("line %d: duplicate section [%s]", lineNo, section)
			}
			seen[section] = map[string]bool{}
			continue
		}

		if section == "" {
			return nil, fmt.Errorf("line %d: key outside of any section", lineNo)
		}

		k, v, ok := splitKV(line)
		if !ok {
			return nil, fmt.Errorf("line %d: expected 'key: value'", lineNo)
		}
		if seen[section][k] {
			return nil, fmt.Errorf("line %d: duplicate key %q in [%s]", lineNo, k, section)
		}
		seen[section][k] = true

		v = trimQuotes(v)
		switch section {
		case "database":
			switch k {
			case "host":
				cfg.DB.Host = v
			case "port":
				p, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: database.port must be int: %w", lineNo, err)
				}
				cfg.DB.Port = p
			case "user":
				cfg.DB.User = v
			case "password":
				cfg.DB.Password = v
			case "database":
				cfg.DB.Name = v
			default:
				return nil, fmt.Errorf("line %d: unknown field for [database]: %q", lineNo, k)
			}

		case "rabbitmq":
			switch k {
			case "host":
				cfg.RMQ.Host = v
			case "port":
				p, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: rabbitmq.port must be int: %w", lineNo, err)
				}
				cfg.RMQ.Port = p
			case "user":
				cfg.RMQ.User = v
			case "password":
				cfg.RMQ.Password = v
			default:
				return nil, fmt.Errorf("line %d: unknown field for [rabbitmq]: %q", lineNo, k)
			}

		case "server":
			switch k {
			case "port":
				p, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: server.port must be int: %w", lineNo, err)
				}
				cfg.Server.Port = p
			default:
				return nil, fmt.Errorf("line %d: unknown field for [server]: %q", lineNo, k)
			}

		case "routing":
			switch k {
			case "base_url":
				cfg.Routing.BaseURL = v
			case "timeout_seconds":
				t, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("line %d: routing.timeout_seconds must be int: %w", lineNo, err)
				}
				if t <= 0 {
					return nil, fmt.Errorf("line %d: routing.timeout_seconds must be positive", lineNo)
				}
				cfg.Routing.TimeoutSeconds = t
			default:
				return nil, fmt.Errorf("line %d: unknown field for [routing]: %q", lineNo, k)
			}

		case "push":
			switch k {
			case "url":
				cfg.Push.URL = v
			default:
				return nil, fmt.Errorf("line %d: unknown field for [push]: %q", lineNo, k)
			}

		case "jwt":
			switch k {
			case "secret":
				cfg.JWT.Secret = v
			default:
				return nil, fmt.Errorf("line %d: unknown field for [jwt]: %q", lineNo, k)
			}
		}
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan config: %w", err)
	}

	if err := ensureRequired(seen["database"], requiredDB, "database"); err != nil {
		return nil, err
	}
	if err := ensureRequired(seen["rabbitmq"], requiredRMQ, "rabbitmq"); err != nil {
		return nil, err
	}
	if err := ensureRequired(seen["server"], requiredSrv, "server"); err != nil {
		return nil, err
	}
	if err := ensureRequired(seen["routing"], requiredRt, "routing"); err != nil {
		return nil, err
	}
	if err := ensureRequired(seen["jwt"], requiredJWT, "jwt"); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func splitKV(line string) (key, val string, ok bool) {
	i := strings.IndexRune(line, ':')
	if i <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:i])
	val = strings.TrimSpace(line[i+1:])
	if key == "" || val == "" {
		return "", "", false
	}
	return key, val, true
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

func ensureRequired(seen map[string]bool, required []string, section string) error {
	if seen == nil {
		return errors.New("missing section [" + section + "]")
	}
	var missing []string
	for _, k := range required {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return errors.New("missing required keys in [" + section + "]: " + strings.Join(missing, ", "))
	}
	return nil
}
