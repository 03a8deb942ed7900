package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jinterlante1206/chorus/internal/chorerr"
	"github.com/jinterlante1206/chorus/internal/httpapi/dto"
	"github.com/jinterlante1206/chorus/internal/llmclient"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleModels(c *gin.Context) {
	names := s.Registry.Names()
	data := make([]dto.ModelInfo, 0, len(names))
	for _, name := range names {
		desc, _ := s.Registry.Lookup(name)
		data = append(data, dto.ModelInfo{
			Name:            desc.Name,
			DefaultTemp:     desc.DefaultTemp,
			AutoTemperature: desc.AutoTemperature,
		})
	}
	c.JSON(http.StatusOK, dto.ModelsResponse{Object: "list", Data: data})
}

func (s *Server) handleGenerate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	s.runOllamaStyle(c, req.Prompt, req.Model, req.Stream, req.IncludeWorkflow, func(text string) dto.OllamaResponse {
		return dto.OllamaResponse{Model: req.Model, CreatedAt: nowRFC3339(), Response: text, Done: true}
	})
}

func (s *Server) handleChat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	prompt := joinMessages(req.Messages)
	s.runOllamaStyle(c, prompt, req.Model, req.Stream, req.IncludeWorkflow, func(text string) dto.OllamaResponse {
		return dto.OllamaResponse{
			Model:     req.Model,
			CreatedAt: nowRFC3339(),
			Message:   &dto.Message{Role: "assistant", Content: text},
			Done:      true,
		}
	})
}

func (s *Server) handleCompletions(c *gin.Context) {
	var req dto.CompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	prompt, err := req.ExtractPrompt()
	if err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	s.runOpenAIStyle(c, prompt, req.Model, req.Stream, req.IncludeWorkflow)
}

func (s *Server) handleChatCompletions(c *gin.Context) {
	var req dto.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	prompt := joinMessages(req.Messages)
	s.runOpenAIStyle(c, prompt, req.Model, req.Stream, req.IncludeWorkflow)
}

func (s *Server) handleResponses(c *gin.Context) {
	var req dto.ResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}
	prompt, err := req.ExtractPrompt()
	if err != nil {
		writeError(c, &chorerr.InvalidRequest{Reason: err.Error()})
		return
	}

	if !req.Stream {
		result, err := s.Engine.Execute(c.Request.Context(), s.Workflow, prompt, req.IncludeWorkflow)
		if err != nil {
			writeError(c, err)
			return
		}
		resp := dto.ResponsesResponse{
			ID:      "resp_" + uuid.NewString(),
			Object:  "response",
			Created: time.Now().Unix(),
			Output: []dto.ResponsesOutputItem{
				{Type: "message", Content: []dto.ResponsesContentPart{{Type: "text", Text: result.Text}}},
			},
		}
		if req.IncludeWorkflow {
			resp.Workflow = result.Trace
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	s.streamResponses(c, prompt)
}

func (s *Server) streamResponses(c *gin.Context, prompt string) {
	writer, err := newSSEWriter(c.Writer)
	if err != nil {
		writeError(c, err)
		return
	}
	responseID := "resp_" + uuid.NewString()
	writer.writeData(fmt.Sprintf(`{"type":"response.created","id":%q}`, responseID))

	_, err = s.Engine.ExecuteStreaming(c.Request.Context(), s.Workflow, prompt, func(chunk llmclient.StreamChunk) error {
		if chunk.Done {
			return nil
		}
		return writer.writeData(fmt.Sprintf(`{"type":"response.output_text.delta","delta":%q}`, chunk.Delta))
	})
	if err != nil {
		writer.writeData(fmt.Sprintf(`{"type":"error","message":%q}`, err.Error()))
		writer.writeDone()
		return
	}

	writer.writeData(fmt.Sprintf(`{"type":"response.completed","id":%q}`, responseID))
	writer.writeDone()
}

// runOllamaStyle executes the engine and encodes the result in the
// Ollama response family, or streams it with a trailing `done:true`
// frame.
func (s *Server) runOllamaStyle(c *gin.Context, prompt, model string, stream, includeWorkflow bool, encode func(text string) dto.OllamaResponse) {
	if prompt == "" {
		writeError(c, &chorerr.InvalidRequest{Reason: "missing prompt"})
		return
	}
	if !stream {
		result, err := s.Engine.Execute(c.Request.Context(), s.Workflow, prompt, includeWorkflow)
		if err != nil {
			writeError(c, err)
			return
		}
		resp := encode(result.Text)
		if includeWorkflow {
			resp.Workflow = result.Trace
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	writer, err := newSSEWriter(c.Writer)
	if err != nil {
		writeError(c, err)
		return
	}
	_, err = s.Engine.ExecuteStreaming(c.Request.Context(), s.Workflow, prompt, func(chunk llmclient.StreamChunk) error {
		if chunk.Done {
			return writer.writeData(fmt.Sprintf(`{"model":%q,"done":true}`, model))
		}
		return writer.writeData(fmt.Sprintf(`{"model":%q,"response":%q,"done":false}`, model, chunk.Delta))
	})
	if err != nil {
		writer.writeData(fmt.Sprintf(`{"error":%q}`, err.Error()))
	}
}

// runOpenAIStyle executes the engine and encodes the result as a
// chat-completion-shaped response (used by both /v1/completions and
// /v1/chat/completions), or streams arrival-ordered deltas terminated
// by `data: [DONE]`.
func (s *Server) runOpenAIStyle(c *gin.Context, prompt, model string, stream, includeWorkflow bool) {
	if prompt == "" {
		writeError(c, &chorerr.InvalidRequest{Reason: "missing prompt"})
		return
	}
	if !stream {
		result, err := s.Engine.Execute(c.Request.Context(), s.Workflow, prompt, includeWorkflow)
		if err != nil {
			writeError(c, err)
			return
		}
		resp := dto.ChatCompletionResponse{
			ID:      "chatcmpl-" + uuid.NewString(),
			Object:  "chat.completion",
			Created: time.Now().Unix(),
			Model:   model,
			Choices: []dto.ChatCompletionChoice{
				{Index: 0, Message: dto.Message{Role: "assistant", Content: result.Text}, FinishReason: "stop"},
			},
		}
		if includeWorkflow {
			resp.Workflow = result.Trace
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	writer, err := newSSEWriter(c.Writer)
	if err != nil {
		writeError(c, err)
		return
	}
	_, err = s.Engine.ExecuteStreaming(c.Request.Context(), s.Workflow, prompt, func(chunk llmclient.StreamChunk) error {
		if chunk.Done {
			return writer.writeDone()
		}
		return writer.writeData(fmt.Sprintf(`{"choices":[{"delta":{"content":%q}}]}`, chunk.Delta))
	})
	if err != nil {
		writer.writeData(fmt.Sprintf(`{"error":%q}`, err.Error()))
		writer.writeDone()
	}
}

func joinMessages(messages []dto.Message) string {
	var out string
	for i, m := range messages {
		if i > 0 {
			out += "\n"
		}
		out += m.Role + ": " + m.Content
	}
	return out
}
