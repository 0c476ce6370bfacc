package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"ai-divination-be/internal/dto"
	"ai-divination-be/internal/entity"
	"ai-divination-be/internal/repository/contract"
	"ai-divination-be/internal/repository/specification"
	"ai-divination-be/internal/repository/unitofwork"
	"ai-divination-be/pkg/divination/algorithm"
	"ai-divination-be/pkg/divination/explainer"
	"ai-divination-be/pkg/divination/orchestrator"
	"ai-divination-be/pkg/divination/retrieval"
	"ai-divination-be/pkg/events"
	pktNats "ai-divination-be/pkg/nats"
	"ai-divination-be/pkg/store"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IDivinationService interface {
	CreateSession(ctx context.Context, userID uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionDTO, error)
	Chat(ctx context.Context, userID uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]*dto.SessionDTO, error)
	History(ctx context.Context, userID, sessionID uuid.UUID) (*dto.HistoryResponse, error)
	ListAlgorithms() []dto.AlgorithmDTO
	SubmitFeedback(ctx context.Context, userID uuid.UUID, req *dto.FeedbackRequest) error
}

type divinationService struct {
	uowFactory     unitofwork.RepositoryFactory
	conversations  contract.ConversationStore
	machine        *orchestrator.Machine
	registry       *algorithm.Registry
	retriever      *retrieval.Retriever
	explainer      *explainer.Pipeline
	archiver       IPublisherService
	eventPublisher *pktNats.Publisher
}

func NewDivinationService(
	uowFactory unitofwork.RepositoryFactory,
	conversations contract.ConversationStore,
	machine *orchestrator.Machine,
	registry *algorithm.Registry,
	retriever *retrieval.Retriever,
	explainerPipeline *explainer.Pipeline,
	archiver IPublisherService,
	eventPublisher *pktNats.Publisher,
) IDivinationService {
	return &divinationService{
		uowFactory:     uowFactory,
		conversations:  conversations,
		machine:        machine,
		registry:       registry,
		retriever:      retriever,
		explainer:      explainerPipeline,
		archiver:       archiver,
		eventPublisher: eventPublisher,
	}
}

func (s *divinationService) CreateSession(ctx context.Context, userID uuid.UUID, req *dto.CreateSessionRequest) (*dto.SessionDTO, error) {
	title := req.Title
	if title == "" {
		title = "新的占卜"
	}

	session := &entity.ChatSession{
		Id:        uuid.New(),
		UserId:    userID,
		Title:     title,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}

	conv := store.NewConversation(session.Id.String(), userID.String())
	if err := s.conversations.Save(ctx, conv); err != nil {
		log.Printf("[WARN] Failed to seed conversation state for session %s: %v", session.Id, err)
	}

	return sessionToDTO(session), nil
}

func (s *divinationService) Chat(ctx context.Context, userID uuid.UUID, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	sessionID, err := uuid.Parse(req.SessionId)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionID},
		specification.UserOwnedBy{UserID: userID},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Session not found")
	}

	conv, found, err := s.conversations.Get(ctx, sessionID.String())
	if err != nil {
		return nil, err
	}
	if !found {
		conv = store.NewConversation(sessionID.String(), userID.String())
	}

	s.saveMessage(ctx, uow, sessionID, "user", req.Message)

	turn, err := s.machine.Advance(ctx, conv, req.Message)
	if err != nil {
		if saveErr := s.conversations.Save(ctx, conv); saveErr != nil {
			log.Printf("[WARN] Failed to persist conversation %s: %v", conv.SessionID, saveErr)
		}
		return nil, err
	}

	if !turn.ReadyToExecute() {
		if err := s.conversations.Save(ctx, conv); err != nil {
			log.Printf("[WARN] Failed to persist conversation %s: %v", conv.SessionID, err)
		}
		s.saveMessage(ctx, uow, sessionID, "assistant", turn.Reply)
		return &dto.ChatResponse{
			SessionId:     conv.SessionID,
			State:         turn.State,
			Reply:         turn.Reply,
			MissingFields: turn.MissingFields,
			FieldErrors:   fieldIssues(turn.FieldErrors),
		}, nil
	}

	response, err := s.execute(ctx, uow, conv, turn)
	if err != nil {
		if saveErr := s.conversations.Save(ctx, conv); saveErr != nil {
			log.Printf("[WARN] Failed to persist conversation %s: %v", conv.SessionID, saveErr)
		}
		return nil, err
	}

	conv.State = store.StateDone
	conv.Terminal = true
	conv.UpdatedAt = time.Now()
	if err := s.conversations.Save(ctx, conv); err != nil {
		log.Printf("[WARN] Failed to persist conversation %s: %v", conv.SessionID, err)
	}

	s.saveMessage(ctx, uow, sessionID, "assistant", response.Reply)
	return response, nil
}

// execute runs the algorithm and the knowledge retrieval concurrently,
// then feeds both into the explanation pipeline.
func (s *divinationService) execute(ctx context.Context, uow unitofwork.UnitOfWork, conv *store.Conversation, turn *orchestrator.Turn) (*dto.ChatResponse, error) {
	adapter, err := s.registry.Get(turn.AlgorithmID)
	if err != nil {
		return nil, err
	}
	inputs := *turn.Inputs

	var (
		wg     sync.WaitGroup
		result *algorithm.Result
		runErr error
		chunks []retrieval.Chunk
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		result, runErr = adapter.Run(ctx, inputs)
	}()
	go func() {
		defer wg.Done()
		chunks = s.retriever.Search(ctx, []string{inputs.Question, inputs.QuestionType})
	}()
	wg.Wait()

	if runErr != nil {
		return nil, runErr
	}

	userID, _ := uuid.Parse(conv.UserID)
	profile, historySummary := s.buildProfile(ctx, uow, userID)

	conv.State = store.StatePackaging
	output := s.explainer.Explain(ctx, &explainer.Package{
		Question:       inputs.Question,
		Intent:         conv.Intent,
		Slots:          conv.Slots,
		AlgorithmID:    turn.AlgorithmID,
		Result:         result,
		Chunks:         chunks,
		Profile:        profile,
		HistorySummary: historySummary,
	})

	fallbackUsed := result.FallbackUsed() || output.FallbackUsed
	resultMap := toMap(result.Result)
	s.archive(ctx, conv, inputs, turn.AlgorithmID, resultMap, chunks, output.Text, result.Confidence, fallbackUsed)

	if s.eventPublisher != nil {
		event := events.NewDivinationCompletedEvent(conv.UserID, conv.SessionID, turn.AlgorithmID, inputs.QuestionType, fallbackUsed)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish divination completed event: %v", err)
		}
	}

	return &dto.ChatResponse{
		SessionId:    conv.SessionID,
		State:        store.StateDone,
		Reply:        output.Text,
		AlgorithmId:  turn.AlgorithmID,
		Reading:      resultMap,
		References:   references(chunks),
		Confidence:   result.Confidence,
		FallbackUsed: fallbackUsed,
	}, nil
}

func (s *divinationService) archive(ctx context.Context, conv *store.Conversation, inputs algorithm.Inputs, algorithmID string, resultMap map[string]any, chunks []retrieval.Chunk, answer string, confidence float64, fallbackUsed bool) {
	if s.archiver == nil {
		return
	}

	sessionID, _ := uuid.Parse(conv.SessionID)
	userID, _ := uuid.Parse(conv.UserID)

	ragContext := make([]string, len(chunks))
	for i, c := range chunks {
		ragContext[i] = fmt.Sprintf("《%s》%s", c.Source, c.Text)
	}

	msg := &dto.ArchiveReadingMessage{
		SessionId:    sessionID,
		UserId:       userID,
		Question:     inputs.Question,
		QuestionType: inputs.QuestionType,
		AlgorithmId:  algorithmID,
		Slots:        toMap(inputs),
		Result:       resultMap,
		RagContext:   ragContext,
		Answer:       answer,
		Confidence:   confidence,
		FallbackUsed: fallbackUsed,
		CreatedAt:    time.Now(),
	}
	if err := s.archiver.PublishArchiveReading(ctx, msg); err != nil {
		log.Printf("[ERROR] Failed to publish archive message for session %s: %v", conv.SessionID, err)
	}
}

// buildProfile derives the asker's profile from their account and past
// readings. Any failure just means a leaner explanation.
func (s *divinationService) buildProfile(ctx context.Context, uow unitofwork.UnitOfWork, userID uuid.UUID) (*explainer.Profile, string) {
	if userID == uuid.Nil {
		return nil, ""
	}

	profile := &explainer.Profile{}

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userID})
	if err == nil && user != nil {
		profile.Gender = string(user.Gender)
	}

	counts, err := uow.DivinationRecordRepository().CountByQuestionType(ctx, userID)
	if err != nil {
		log.Printf("[WARN] Failed to load reading counts for user %s: %v", userID, err)
		return profile, ""
	}

	type typed struct {
		name  string
		total int64
	}
	var ranked []typed
	for name, total := range counts {
		profile.TotalReadings += int(total)
		ranked = append(ranked, typed{name: name, total: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].name < ranked[j].name
	})
	for i, t := range ranked {
		if i >= 2 {
			break
		}
		profile.FrequentTypes = append(profile.FrequentTypes, t.name)
	}

	summary := ""
	if profile.TotalReadings > 0 {
		summary = fmt.Sprintf("此前共起卦%d次", profile.TotalReadings)
	}
	return profile, summary
}

func (s *divinationService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*dto.SessionDTO, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: 100},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.SessionDTO, len(sessions))
	for i, sess := range sessions {
		out[i] = sessionToDTO(sess)
	}
	return out, nil
}

func (s *divinationService) History(ctx context.Context, userID, sessionID uuid.UUID) (*dto.HistoryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByID{ID: sessionID},
		specification.UserOwnedBy{UserID: userID},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Session not found")
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	records, err := uow.DivinationRecordRepository().FindAll(ctx,
		specification.BySessionID{SessionID: sessionID},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.HistoryResponse{
		Session:  *sessionToDTO(session),
		Messages: make([]dto.HistoryMessageDTO, len(messages)),
		Records:  make([]dto.RecordDTO, len(records)),
	}
	for i, msg := range messages {
		res.Messages[i] = dto.HistoryMessageDTO{
			Id:        msg.Id,
			Role:      msg.Role,
			Chat:      msg.Chat,
			CreatedAt: msg.CreatedAt,
		}
	}
	for i, rec := range records {
		res.Records[i] = dto.RecordDTO{
			Id:           rec.Id,
			Question:     rec.Question,
			QuestionType: rec.QuestionType,
			AlgorithmId:  rec.AlgorithmId,
			Result:       rec.Result,
			Answer:       rec.Answer,
			Confidence:   rec.Confidence,
			FallbackUsed: rec.FallbackUsed,
			Feedback:     rec.Feedback,
			CreatedAt:    rec.CreatedAt,
		}
	}
	return res, nil
}

func (s *divinationService) ListAlgorithms() []dto.AlgorithmDTO {
	descriptions := s.registry.List()
	out := make([]dto.AlgorithmDTO, len(descriptions))
	for i, desc := range descriptions {
		fields := make([]dto.AlgorithmField, len(desc.InputSchema))
		for j, f := range desc.InputSchema {
			field := dto.AlgorithmField{
				Name:     f.Name,
				Type:     f.Type,
				Required: f.Required,
				Enum:     f.Enum,
			}
			if f.Type == "int" {
				min, max := f.Min, f.Max
				field.Min = &min
				field.Max = &max
			}
			fields[j] = field
		}
		out[i] = dto.AlgorithmDTO{
			Id:          desc.ID,
			Name:        desc.Name,
			InputSchema: fields,
		}
	}
	return out
}

func (s *divinationService) SubmitFeedback(ctx context.Context, userID uuid.UUID, req *dto.FeedbackRequest) error {
	recordID, err := uuid.Parse(req.RecordId)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid record id")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	record, err := uow.DivinationRecordRepository().FindOne(ctx,
		specification.ByID{ID: recordID},
		specification.UserOwnedBy{UserID: userID},
	)
	if err != nil {
		return err
	}
	if record == nil {
		return fiber.NewError(fiber.StatusNotFound, "Record not found")
	}

	if err := uow.DivinationRecordRepository().UpdateFeedback(ctx, recordID, req.Feedback); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		event := events.NewFeedbackReceivedEvent(userID.String(), recordID.String(), req.Feedback)
		if err := s.eventPublisher.Publish(ctx, event); err != nil {
			log.Printf("[WARN] Failed to publish feedback event: %v", err)
		}
	}
	return nil
}

func (s *divinationService) saveMessage(ctx context.Context, uow unitofwork.UnitOfWork, sessionID uuid.UUID, role, text string) {
	if text == "" {
		return
	}
	msg := &entity.ChatMessage{
		Id:            uuid.New(),
		Chat:          text,
		Role:          role,
		ChatSessionId: sessionID,
		CreatedAt:     time.Now(),
	}
	if err := uow.ChatMessageRepository().Create(ctx, msg); err != nil {
		log.Printf("[WARN] Failed to save %s message for session %s: %v", role, sessionID, err)
	}
}

func sessionToDTO(s *entity.ChatSession) *dto.SessionDTO {
	return &dto.SessionDTO{
		Id:        s.Id,
		Title:     s.Title,
		CreatedAt: s.CreatedAt,
	}
}

func fieldIssues(errs []algorithm.FieldError) []dto.FieldIssue {
	if len(errs) == 0 {
		return nil
	}
	out := make([]dto.FieldIssue, len(errs))
	for i, fe := range errs {
		out[i] = dto.FieldIssue{Field: fe.Field, Message: fe.Message}
	}
	return out
}

func references(chunks []retrieval.Chunk) []dto.ReferenceDTO {
	if len(chunks) == 0 {
		return nil
	}
	out := make([]dto.ReferenceDTO, len(chunks))
	for i, c := range chunks {
		out[i] = dto.ReferenceDTO{Source: c.Source, Text: c.Text, Score: c.Score}
	}
	return out
}

// toMap round-trips a value through JSON so the wire shape matches
// what gets archived.
func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
