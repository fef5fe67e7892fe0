package service

import (
	"context"
	"time"

	"github.com/rampartlabs/rampart/internal/domain/models"
	"github.com/rampartlabs/rampart/pkg/errors"
)

//go:generate mockery --name Detector --output mocks --outpkg mocks
// Detector scores one risk category for a piece of text. Implementations are
// pure with respect to process state: the same input always produces the same
// finding, and scanning never mutates shared rule data.
// Detector 对一段文本的单个风险类别进行评分。实现相对于进程状态是纯的：
// 相同输入总是产生相同结论，扫描绝不修改共享规则数据。
type Detector interface {
	// Category returns the risk category this detector scores.
	// Category 返回该检测器评分的风险类别。
	Category() models.Category

	// Detect scans the text and returns a finding with a score in [0, 1].
	// Empty input yields a zero score. Errors are mapped to a failed finding
	// by the caller and never abort the scoring pass.
	// Detect 扫描文本并返回得分在 [0, 1] 的结论。空输入得零分。
	// 错误由调用方映射为失败结论，绝不中止评分流程。
	Detect(ctx context.Context, text string) (*models.RiskFinding, error)
}

//go:generate mockery --name RiskAggregator --output mocks --outpkg mocks
// RiskAggregator combines per-category findings into one verdict.
// RiskAggregator 将各类别结论合并为一个整体结论。
type RiskAggregator interface {
	// Aggregate computes the weighted overall score and levels. The result
	// does not depend on the order of findings. Tenant overrides, when
	// non-nil, replace the matching defaults for this call only.
	// Aggregate 计算加权总分和级别。结果与结论的顺序无关。
	// 租户覆盖值非 nil 时仅在本次调用中替换对应默认值。
	Aggregate(ctx context.Context, findings []models.RiskFinding, overrides *models.ScoringOverrides) *models.RiskVerdict
}

//go:generate mockery --name PolicyEngine --output mocks --outpkg mocks
// PolicyEngine turns a verdict into a disposition and the output text.
// PolicyEngine 将评估结论转化为处置决定和输出文本。
type PolicyEngine interface {
	// Evaluate applies the tenant's policy to the verdict. For redact
	// dispositions the returned output has every evidence span replaced by
	// a placeholder; for block dispositions the output is empty.
	// Evaluate 将租户策略应用于评估结论。遮蔽处置时返回的输出将所有证据区间
	// 替换为占位符；拦截处置时输出为空。
	Evaluate(ctx context.Context, text string, verdict *models.RiskVerdict, policy models.RiskPolicy) *models.PolicyDecision
}

// SessionStore holds live secure sessions in process memory. Keys never
// reach any persistence layer; a store restart invalidates all sessions.
// SessionStore 在进程内存中持有活跃安全会话。密钥绝不进入任何持久层；
// 存储重启使所有会话失效。
type SessionStore interface {
	// Put registers a session under its ID.
	// Put 以会话 ID 注册会话。
	Put(session *models.Session) error

	// Get returns the live session or nil. An expired session is purged on
	// access and reported as absent.
	// Get 返回活跃会话或 nil。过期会话在访问时被清除并按不存在处理。
	Get(id string, now time.Time) *models.Session

	// Delete removes a session and zeroes its key material.
	// Delete 删除会话并清零其密钥材料。
	Delete(id string)

	// PurgeExpired removes every session past expiry and returns the count.
	// PurgeExpired 删除所有过期会话并返回数量。
	PurgeExpired(now time.Time) int

	// Count returns the number of live sessions.
	// Count 返回活跃会话数量。
	Count() int
}

// PayloadSealer performs the symmetric authenticated encryption of secure
// transport payloads. Implementations must use a fresh random nonce per call
// so equal plaintexts never produce equal envelopes.
// PayloadSealer 执行安全传输负载的对称认证加密。实现必须每次调用使用
// 新的随机 nonce，相同明文绝不产生相同信封。
type PayloadSealer interface {
	// Seal encrypts the plaintext under the session key and returns the
	// transport envelope.
	// Seal 用会话密钥加密明文并返回传输信封。
	Seal(key []byte, plaintext []byte) (string, error)

	// Open authenticates and decrypts a transport envelope. Tampered or
	// wrong-key envelopes fail without revealing which check failed.
	// Open 认证并解密传输信封。被篡改或密钥错误的信封失败时不暴露具体原因。
	Open(key []byte, envelope string) ([]byte, error)
}

//go:generate mockery --name AuditService --output mocks --outpkg mocks
// AuditService signs and persists audit records.
// AuditService 对审计记录进行签名并持久化。
type AuditService interface {
	// Record signs the record and appends it to the trail. The record must
	// already be reduced to post-redaction facts.
	// Record 对记录签名并追加到审计链。记录必须已缩减为遮蔽后的事实。
	Record(ctx context.Context, record *models.AuditRecord) *errors.AppError

	// Verify recomputes the signature and reports whether it matches.
	// Verify 重新计算签名并报告是否匹配。
	Verify(ctx context.Context, record *models.AuditRecord) (bool, *errors.AppError)
}

// SecretsProvider abstracts the secret backend (e.g. Vault) that holds the
// audit signing key and other service credentials.
// SecretsProvider 抽象持有审计签名密钥及其他服务凭证的密钥后端（例如 Vault）。
type SecretsProvider interface {
	// GetSecret reads one field from the secret at the given path.
	// GetSecret 读取给定路径密钥的一个字段。
	GetSecret(ctx context.Context, path, field string) (string, error)
}
