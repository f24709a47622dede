package redis

import (
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/clusterstats/stathub/errors"
)

// createPool builds a redigo pool for the given options. Each statistics
// operation checks one connection out and releases it on return.
func createPool(options Options) *redis.Pool {
	return &redis.Pool{
		MaxActive:   options.MaxConnections,
		MaxIdle:     options.MaxIdle,
		IdleTimeout: options.IdleTimeout,
		Dial: func() (redis.Conn, error) {
			return dial(options)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// dial establishes one Redis connection for the pool.
func dial(options Options) (redis.Conn, error) {
	uri, err := url.Parse(options.URI)
	if err != nil {
		return nil, errors.NewConnectionError(options.URI,
			fmt.Errorf("invalid URI: %w", err))
	}

	dialOptions := []redis.DialOption{
		redis.DialConnectTimeout(options.ConnectTimeout),
		redis.DialReadTimeout(options.ReadTimeout),
		redis.DialWriteTimeout(options.WriteTimeout),
	}

	var network, host, password, db string

	switch uri.Scheme {
	case "redis", "rediss":
		network = "tcp"
		host = uri.Host
		if uri.User != nil {
			password, _ = uri.User.Password()
		}
		if len(uri.Path) > 1 {
			db = uri.Path[1:]
		}

		if uri.Scheme == "rediss" || options.UseTLS {
			dialOptions = append(dialOptions,
				redis.DialUseTLS(true),
				redis.DialTLSConfig(&tls.Config{
					InsecureSkipVerify: options.TLSSkipVerify,
				}),
			)
		}
	case "unix":
		network = "unix"
		host = uri.Path
	default:
		return nil, errors.NewConnectionError(options.URI,
			fmt.Errorf("invalid Redis URI scheme %q", uri.Scheme))
	}

	conn, err := redis.Dial(network, host, dialOptions...)
	if err != nil {
		return nil, errors.NewConnectionError(options.URI,
			fmt.Errorf("failed to connect: %w", err))
	}

	if password != "" {
		if _, err := conn.Do("AUTH", password); err != nil {
			conn.Close()
			return nil, errors.NewConnectionError(options.URI,
				fmt.Errorf("authentication failed: %w", err))
		}
	}

	if db != "" {
		if _, err := conn.Do("SELECT", db); err != nil {
			conn.Close()
			return nil, errors.NewConnectionError(options.URI,
				fmt.Errorf("failed to select database: %w", err))
		}
	}

	return conn, nil
}
