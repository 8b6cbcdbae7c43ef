package wire

import (
	"Teamline/internal/api"
	"Teamline/internal/api/config"
	"Teamline/internal/api/handler"
	"Teamline/internal/job"
	"Teamline/internal/pkg/cron"
	"Teamline/internal/pkg/kafka"
	mongopkg "Teamline/internal/pkg/mongo"
	"Teamline/internal/repository"
	"Teamline/internal/service"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
	ReceiptSvc   service.ReadReceiptService
}

func BuildApplication(db *gorm.DB, mongoDB *mongo.Database, cfg *config.Config) (*ApplicationContainer, error) {
	userRepo := repository.NewUserRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	subRepo := repository.NewSubscriptionRepo(db)
	settingRepo := repository.NewSettingRepo(db)

	messageRepo := mongopkg.NewMessageRepo(mongoDB)
	receiptRepo := mongopkg.NewReceiptRepo(mongoDB)
	visitorRepo := mongopkg.NewVisitorRepo(mongoDB)

	settingsService := service.NewSettingsService(settingRepo)
	receiptService := service.NewReadReceiptService(
		settingsService,
		roomRepo,
		subRepo,
		userRepo,
		messageRepo,
		receiptRepo,
		visitorRepo,
		time.Duration(cfg.ReadReceipt.DebounceMillis)*time.Millisecond,
	)
	userService := service.NewUserService(userRepo, subRepo, messageRepo)
	roomService := service.NewRoomService(roomRepo, subRepo, settingsService)
	messageService := service.NewMessageService(roomRepo, subRepo, userRepo, messageRepo, receiptService)

	handlers := &api.HandlersGroup{
		UserHandler: handler.NewUserHandler(userService, roomService),
		RoomHandler: handler.NewRoomHandler(roomService),
		ChatHandler: handler.NewChatHandler(messageService, receiptService),
		WSHandler:   handler.NewWsHandler(subRepo),
	}

	router := api.SetupRouter(handlers)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, receiptService)
	if err != nil {
		return nil, err
	}

	cronMgr := cron.NewCronManager(job.NewReceiptSweepJob(receiptService))

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
		ReceiptSvc:   receiptService,
	}, nil
}
