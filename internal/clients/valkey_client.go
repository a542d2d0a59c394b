package clients

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spacesedan/reviewflow/internal/models"
	"github.com/valkey-io/valkey-go"
)

const VALKEY_ANALYSIS_PREFIX = "reviewflow:analysis:"

type ValkeyConfig struct {
	Address  string
	Password string
	UseTLS   bool
	TTL      time.Duration
}

type ValkeyClient struct {
	Client valkey.Client
	ttl    time.Duration
}

func NewValkeyClient(ctx context.Context, cfg ValkeyConfig) (*ValkeyClient, error) {
	opts := valkey.ClientOption{
		InitAddress: []string{
			cfg.Address,
		},
		Password:         cfg.Password,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if cfg.UseTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*3)
	defer cancel()

	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey", slog.String("address", cfg.Address))
	return &ValkeyClient{Client: client, ttl: cfg.TTL}, nil
}

func (vc *ValkeyClient) Close() {
	vc.Client.Close()
}

func analysisKey(queryKey string) string {
	return VALKEY_ANALYSIS_PREFIX + queryKey
}

// expiryMillis converts a TTL to the PX argument, rounding sub-millisecond
// values up so a positive TTL never turns into "no expiry" or an invalid 0.
func expiryMillis(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	ms := int64(ttl / time.Millisecond)
	if ttl%time.Millisecond != 0 {
		ms++
	}
	return ms
}

// GetAnalysis returns the cached analysis for queryKey; ok is false on a miss.
func (vc *ValkeyClient) GetAnalysis(ctx context.Context, queryKey string) (*models.AnalysisResult, bool, error) {
	raw, err := vc.Client.Do(ctx, vc.Client.B().Get().Key(analysisKey(queryKey)).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("[ValkeyClient] get analysis: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("[ValkeyClient] corrupt cached analysis: %w", err)
	}
	return &result, true, nil
}

func (vc *ValkeyClient) SetAnalysis(ctx context.Context, queryKey string, result models.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	set := vc.Client.B().Set().Key(analysisKey(queryKey)).Value(string(data))
	var cmd valkey.Completed
	if ms := expiryMillis(vc.ttl); ms > 0 {
		cmd = set.PxMilliseconds(ms).Build()
	} else {
		cmd = set.Build()
	}
	if err := vc.Client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] set analysis: %w", err)
	}
	return nil
}

func (vc *ValkeyClient) DeleteAnalysis(ctx context.Context, queryKey string) error {
	if err := vc.Client.Do(ctx, vc.Client.B().Del().Key(analysisKey(queryKey)).Build()).Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] delete analysis: %w", err)
	}
	return nil
}

// FlushAnalyses drops every cached analysis written by this service.
func (vc *ValkeyClient) FlushAnalyses(ctx context.Context) error {
	var cursor uint64
	removed := 0
	for {
		entry, err := vc.Client.Do(ctx, vc.Client.B().Scan().Cursor(cursor).Match(VALKEY_ANALYSIS_PREFIX+"*").Count(100).Build()).AsScanEntry()
		if err != nil {
			return fmt.Errorf("[ValkeyClient] scan analyses: %w", err)
		}
		if len(entry.Elements) > 0 {
			if err := vc.Client.Do(ctx, vc.Client.B().Del().Key(entry.Elements...).Build()).Error(); err != nil {
				return fmt.Errorf("[ValkeyClient] delete analyses: %w", err)
			}
			removed += len(entry.Elements)
		}
		if entry.Cursor == 0 {
			break
		}
		cursor = entry.Cursor
	}

	slog.Info("[ValkeyClient] Flushed cached analyses", slog.Int("removed", removed))
	return nil
}
