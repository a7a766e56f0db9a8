// Beacon - Web Analytics Collector and Domain Authorization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/beacon

// Package authz authorizes dashboard requests with a Casbin RBAC model.
//
// Subjects are roles, not users: the role comes from the token's role claim
// or the configured default. Project ownership is enforced separately by
// storage queries scoped to the token subject.
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"github.com/tomtom215/beacon/internal/cache"
	"github.com/tomtom215/beacon/internal/config"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// Resource kinds.
const (
	ObjectProjects = "projects"
	ObjectDomains  = "domains"
	ObjectEvents   = "events"
)

// Actions.
const (
	ActionRead  = "read"
	ActionWrite = "write"
)

const decisionCacheSize = 1024

// Enforcer wraps a synced Casbin enforcer with a decision cache.
type Enforcer struct {
	enforcer    *casbin.SyncedEnforcer
	defaultRole string
	cache       *cache.LRU[bool]
}

// NewEnforcer loads the model and policy from cfg, falling back to the
// embedded ones when the paths are empty or missing. A zero CacheTTL
// disables decision caching.
func NewEnforcer(cfg *config.AuthzConfig) (*Enforcer, error) {
	var (
		m   model.Model
		err error
	)
	if cfg.ModelPath != "" && fileExists(cfg.ModelPath) {
		m, err = model.NewModelFromFile(cfg.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if cfg.PolicyPath != "" && fileExists(cfg.PolicyPath) {
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(cfg.PolicyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	e := &Enforcer{enforcer: enforcer, defaultRole: cfg.DefaultRole}
	if cfg.CacheTTL > 0 {
		e.cache = cache.NewLRU[bool](decisionCacheSize, cfg.CacheTTL)
	}
	return e, nil
}

// loadEmbeddedPolicy parses policy CSV lines of the form "p, sub, obj, act"
// and "g, member, role".
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line: %q", line)
		}
	}
	return nil
}

// RoleFor returns role, or the default role when role is empty.
func (e *Enforcer) RoleFor(role string) string {
	if role == "" {
		return e.defaultRole
	}
	return role
}

// Enforce reports whether role may perform action on object. An empty role
// is replaced by the default role.
func (e *Enforcer) Enforce(role, object, action string) (bool, error) {
	role = e.RoleFor(role)
	key := role + ":" + object + ":" + action

	if e.cache != nil {
		if allowed, ok := e.cache.Get(key); ok {
			return allowed, nil
		}
	}

	allowed, err := e.enforcer.Enforce(role, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}

	if e.cache != nil {
		e.cache.Add(key, allowed)
	}
	return allowed, nil
}

// CacheStats reports decision cache counters. It is zero when caching is
// disabled.
func (e *Enforcer) CacheStats() cache.Stats {
	if e.cache == nil {
		return cache.Stats{}
	}
	return e.cache.Stats()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

