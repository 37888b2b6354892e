// engine/remote.go
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wfunc/turtlesoup/models"
)

// ErrEngineUnavailable 外部推理服务不可用（网络错误、超时或返回了不合法的结果）
var ErrEngineUnavailable = errors.New("reasoning engine unavailable")

// RemoteEngine 把三个引擎操作委托给外部推理服务的 HTTP 客户端。
// 服务被视为不可靠：所有失败都折叠成 ErrEngineUnavailable，由上层回退。
type RemoteEngine struct {
	baseURL string
	client  *http.Client
}

// NewRemoteEngine 创建远程引擎，timeout 限制单次调用的总耗时
func NewRemoteEngine(baseURL string, timeout time.Duration) *RemoteEngine {
	return &RemoteEngine{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type remoteRequest struct {
	Question string   `json:"question,omitempty"`
	Guess    string   `json:"guess,omitempty"`
	Story    string   `json:"story"`
	Solution string   `json:"solution,omitempty"`
	Clues    []string `json:"clues,omitempty"`
}

type remoteAnswer struct {
	Answer      string  `json:"answer"`
	Score       float64 `json:"score"`
	Explanation string  `json:"explanation"`
}

type remoteGuess struct {
	IsCorrect bool    `json:"is_correct"`
	Score     float64 `json:"score"`
	Message   string  `json:"message"`
	FullStory string  `json:"full_story"`
}

type remoteHint struct {
	Hint string `json:"hint"`
}

// post 发送请求并解码响应，任何异常都包装成 ErrEngineUnavailable
func (e *RemoteEngine) post(ctx context.Context, path string, req interface{}, result interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrEngineUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}

// AnswerQuestion 委托外部服务回答提问
func (e *RemoteEngine) AnswerQuestion(ctx context.Context, question string, st *models.Story) (*models.Answer, error) {
	var resp remoteAnswer
	if err := e.post(ctx, "/v1/answer", remoteRequest{Question: question, Story: st.Prompt, Solution: st.Solution}, &resp); err != nil {
		return nil, err
	}

	answer := models.AnswerType(resp.Answer)
	switch answer {
	case models.AnswerYes, models.AnswerNo, models.AnswerClose, models.AnswerIrrelevant:
	default:
		// 服务返回了词表以外的回答，视为不可用
		return nil, fmt.Errorf("%w: bad answer %q", ErrEngineUnavailable, resp.Answer)
	}

	return &models.Answer{Answer: answer, Score: resp.Score, Explanation: resp.Explanation}, nil
}

// CheckGuess 委托外部服务评估猜测
func (e *RemoteEngine) CheckGuess(ctx context.Context, guess string, st *models.Story) (*models.GuessResult, error) {
	var resp remoteGuess
	if err := e.post(ctx, "/v1/guess", remoteRequest{Guess: guess, Story: st.Prompt, Solution: st.Solution}, &resp); err != nil {
		return nil, err
	}
	if resp.Message == "" {
		return nil, fmt.Errorf("%w: empty guess result", ErrEngineUnavailable)
	}
	return &models.GuessResult{
		IsCorrect: resp.IsCorrect,
		Score:     resp.Score,
		Message:   resp.Message,
		FullStory: resp.FullStory,
	}, nil
}

// GenerateHint 委托外部服务生成提示
func (e *RemoteEngine) GenerateHint(ctx context.Context, st *models.Story, clueTitles []string) (string, error) {
	var resp remoteHint
	if err := e.post(ctx, "/v1/hint", remoteRequest{Story: st.Prompt, Solution: st.Solution, Clues: clueTitles}, &resp); err != nil {
		return "", err
	}
	if resp.Hint == "" {
		return "", fmt.Errorf("%w: empty hint", ErrEngineUnavailable)
	}
	return resp.Hint, nil
}
