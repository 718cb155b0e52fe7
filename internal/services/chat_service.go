package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"healthmate/internal/agent"
	"healthmate/internal/document"
	"healthmate/internal/llm"
	"healthmate/internal/logging"
	"healthmate/internal/models"
	"healthmate/internal/reference"
	"healthmate/internal/router"
	"healthmate/internal/tools"
)

// FallbackMessage is returned when the router cannot pick a module
const FallbackMessage = "I couldn't determine the correct assistant module for your request. Please clarify what you want to do."

// ChatService runs the full chat pipeline: route, chain, optional tool
// dispatch, persistence and WebSocket notification.
type ChatService struct {
	router    *router.Router
	chains    *router.Chains
	agent     *agent.Agent
	users     *UserService
	convos    *ConversationService
	reference *reference.Service
	conns     *ConnectionManager
}

// NewChatService wires the pipeline together
func NewChatService(rt *router.Router, chains *router.Chains, ag *agent.Agent,
	users *UserService, convos *ConversationService, ref *reference.Service,
	conns *ConnectionManager) *ChatService {
	return &ChatService{
		router:    rt,
		chains:    chains,
		agent:     ag,
		users:     users,
		convos:    convos,
		reference: ref,
		conns:     conns,
	}
}

// HandleChat processes one user turn. The boolean reports success; on
// failure the string is the user-facing error message.
func (s *ChatService) HandleChat(ctx context.Context, userID, userInput, uploadedFilePath string) (bool, string) {
	start := time.Now()
	defer func() { chatDuration.Observe(time.Since(start).Seconds()) }()

	// Tell listening sockets the turn has started
	s.conns.SendToUser(userID, models.ServerMessage{Type: "stream_start", UserID: userID})

	history, err := s.convos.History(userID)
	if err != nil {
		log.Printf("❌ Failed to load conversation for %s: %v", userID, err)
		chatErrorsTotal.WithLabelValues("internal").Inc()
		return false, fmt.Sprintf("Internal server error: %v", err)
	}
	historyText := RenderHistory(history)
	profileText := s.users.RenderProfile(userID)
	referenceText := s.reference.LoadReferenceData()
	uploadedText := document.ReadDocument(uploadedFilePath)

	key, err := s.router.Route(ctx, router.RouteInput{
		UserInput:           userInput,
		ConversationHistory: historyText,
		ReferenceData:       referenceText,
	})
	if err != nil {
		return false, s.failure("routing", err)
	}

	var final string
	var createdReport string

	if key == router.RouteUnknown {
		chatRequestsTotal.WithLabelValues("unknown").Inc()
		logging.WithRequest(userID, "unknown").Info("no route matched, using fallback")
		final = FallbackMessage
	} else {
		chatRequestsTotal.WithLabelValues(string(key)).Inc()
		logging.WithRequest(userID, string(key)).Info("chat turn routed")

		result, err := s.chains.Run(ctx, key, router.ChainInput{
			UserInput:           userInput,
			ConversationHistory: historyText,
			UserProfile:         profileText,
			ReferenceData:       referenceText,
			UploadedText:        uploadedText,
		})
		if err != nil {
			return false, s.failure("chain", err)
		}

		text := result.Text()
		if agent.ShouldDispatch(text) {
			final, err = s.agent.Dispatch(ctx, text)
			if err != nil {
				return false, s.failure("agent", err)
			}
		} else {
			final = text
		}

		if report, ok := result.(router.ReportRequest); ok {
			// Record the name the report tool actually writes, not the raw
			// model-chosen one
			createdReport = tools.SanitizeReportFilename(report.Filename)
		}
	}

	uploadedName := ""
	if uploadedFilePath != "" {
		uploadedName = filepath.Base(uploadedFilePath)
	}

	now := time.Now().Format(time.RFC3339)
	if err := s.convos.Append(userID, models.Message{
		Role:         "user",
		Content:      userInput,
		Time:         now,
		UploadedFile: uploadedName,
	}); err != nil {
		log.Printf("❌ Failed to record user message for %s: %v", userID, err)
	}
	if err := s.convos.Append(userID, models.Message{
		Role:          "ai",
		Content:       final,
		Time:          time.Now().Format(time.RFC3339),
		CreatedReport: createdReport,
	}); err != nil {
		log.Printf("❌ Failed to record ai message for %s: %v", userID, err)
	}

	s.conns.SendToUser(userID, models.ServerMessage{
		Type:     "ai_response",
		UserID:   userID,
		Response: final,
		Success:  true,
	})

	return true, final
}

// failure maps pipeline errors onto the two user-facing messages: a distinct
// one for connectivity problems, a generic one for everything else
func (s *ChatService) failure(stage string, err error) string {
	log.Printf("❌ Chat %s failed: %v", stage, err)
	if errors.Is(err, llm.ErrConnectivity) {
		chatErrorsTotal.WithLabelValues("connectivity").Inc()
		return "Internet connection error"
	}
	chatErrorsTotal.WithLabelValues("internal").Inc()
	return fmt.Sprintf("Internal server error: %v", err)
}
