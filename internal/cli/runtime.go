package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/actions"
	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/config"
	"github.com/wwwzy/PantryAgent/internal/inventory"
	"github.com/wwwzy/PantryAgent/internal/llm"
	"github.com/wwwzy/PantryAgent/internal/speech"
	"github.com/wwwzy/PantryAgent/internal/storage"
	"github.com/wwwzy/PantryAgent/internal/vision"
)

// runtime 聚合命令共用的存储与库存。
type runtime struct {
	cfg *config.Config
	// db 在既不持久化库存也不审计时为 nil
	db        *storage.Storage
	inventory *inventory.Store
}

// openRuntime 打开存储并加载库存。needDB 为 true 时无论配置如何都打开数据库。
func openRuntime(ctx context.Context, c *config.Config, needDB bool) (*runtime, error) {
	rt := &runtime{cfg: c}

	if needDB || c.Inventory.Persist || c.Agent.Audit {
		db, err := storage.Open(ctx, c.Storage)
		if err != nil {
			return nil, fmt.Errorf("打开存储失败: %w", err)
		}
		rt.db = db
	}

	var opts []inventory.Option
	if rt.db != nil && (needDB || c.Inventory.Persist) {
		opts = append(opts, inventory.WithPersister(rt.db))
	}
	rt.inventory = inventory.NewStore(opts...)

	n, err := rt.inventory.Load(ctx)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("加载库存失败: %w", err)
	}
	if c.Inventory.Seed {
		added, err := rt.inventory.Seed(ctx, inventory.DemoPantry)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("写入演示库存失败: %w", err)
		}
		log.Info().Int("added", added).Msg("demo pantry seeded")
	}
	log.Debug().Int("loaded", n).Int("items", rt.inventory.Len()).Msg("inventory ready")
	return rt, nil
}

// newAgent 构建推理模型、语音与图片服务以及动作集合。
func (rt *runtime) newAgent(ctx context.Context) (*agent.Agent, error) {
	cm, err := llm.NewChatModel(ctx, rt.cfg)
	if err != nil {
		return nil, fmt.Errorf("创建推理模型失败: %w", err)
	}

	var opts []actions.Option
	if client := llm.NewClient(rt.cfg.OpenAI); client != nil {
		tr, err := speech.NewOpenAITranscriber(client, rt.cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		ds, err := vision.NewOpenAIDescriber(client, rt.cfg.OpenAI)
		if err != nil {
			return nil, err
		}
		opts = append(opts, actions.WithTranscriber(tr), actions.WithDescriber(ds))
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set: audio transcription and image description are unavailable")
	}
	if rt.cfg.Agent.Audit && rt.db != nil {
		opts = append(opts, actions.WithAuditor(rt.db))
	}

	tools := actions.NewToolset(rt.inventory, opts...)
	return agent.New(ctx, cm, tools, agent.WithTurnTimeout(rt.cfg.Agent.TurnTimeout))
}

func (rt *runtime) Close() {
	if rt.db == nil {
		return
	}
	if err := rt.db.Close(); err != nil {
		log.Warn().Err(err).Msg("close storage failed")
	}
}
