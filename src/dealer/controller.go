package dealer

import (
	"crypto/ecdsa"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/eth"
	"github.com/warp-contracts/dealer/src/utils/model"
	"github.com/warp-contracts/dealer/src/utils/monitoring"
	monitor_dealer "github.com/warp-contracts/dealer/src/utils/monitoring/dealer"
	"github.com/warp-contracts/dealer/src/utils/task"
)

type Controller struct {
	*task.Task
}

// Sets up committing, scanning and revealing for the account of the given key
func NewController(config *config.Config, key *ecdsa.PrivateKey) (self *Controller, err error) {
	self = new(Controller)
	self.Task = task.NewTask(config, "dealer")

	if key == nil {
		err = ErrNotConfigured
		return
	}

	network, err := eth.GetNetwork(&config.Chain)
	if err != nil {
		return
	}

	// Connections opened so far, closed if the setup fails
	var opened []func()
	defer func() {
		if err == nil {
			return
		}
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i]()
		}
	}()

	// Chain
	client, err := eth.GetEthClient(self.Log, network)
	if err != nil {
		return
	}
	opened = append(opened, client.Close)

	queue, err := eth.NewWriteQueue(config).
		WithBackend(client).
		WithSigner(key, network.ChainIdBig())
	if err != nil {
		return
	}

	bot := eth.NewBot(eth.NewRandomizer(&config.Chain, network, client), queue)

	// Storage
	redisClient, err := model.NewRedisClient(self.Ctx, &config.Redis, "dealer")
	if err != nil {
		return
	}
	log := self.Log
	opened = append(opened, func() {
		err := redisClient.Close()
		if err != nil {
			log.WithError(err).Error("Failed to close Redis connection")
		}
	})

	store := NewSecretStore(config).
		WithClient(redisClient).
		WithAddress(network.RandomizerAddress)

	// Monitoring
	monitor := monitor_dealer.NewMonitor().
		WithMaxRevealDelay(config.Dealer.MaxRevealDelay)

	server := monitoring.NewServer(config).
		WithMonitor(monitor)

	journal := NewJournal().
		WithAddress(network.RandomizerAddress).
		WithMonitor(monitor)

	if config.Dealer.JournalEnabled {
		db, err := model.NewConnection(self.Ctx, config, "dealer")
		if err != nil {
			return nil, err
		}
		journal.WithDB(db)
	}

	// Workers
	assigner := NewAssigner().
		WithChain(bot).
		WithStore(store).
		WithMonitor(monitor)

	scanner := NewEventScanner[*eth.SecretHashAssigned](config, eth.EventSecretHashAssigned).
		WithChain(bot).
		WithStore(store).
		WithJournal(journal).
		WithMonitor(monitor).
		WithFetch(assigner.Fetch).
		WithProcess(assigner.Process)

	committer := NewCommitter(config).
		WithChain(bot).
		WithStore(store).
		WithMonitor(monitor)

	revealer := NewRevealer(config).
		WithChain(bot).
		WithStore(store).
		WithJournal(journal).
		WithMonitor(monitor)

	self.Log.WithField("network", network.Name).
		WithField("randomizer", network.RandomizerAddress.Hex()).
		WithField("bot", queue.From().Hex()).
		Info("Dealer configured")

	// Setup everything, will start upon calling Controller.Start()
	self.Task = self.Task.
		WithSubtask(monitor.Task).
		WithSubtask(server.Task).
		WithSubtask(queue.Task).
		WithSubtask(committer.Task).
		WithSubtask(scanner.Task).
		WithSubtask(revealer.Task).
		WithOnAfterStop(func() {
			err := redisClient.Close()
			if err != nil {
				self.Log.WithError(err).Error("Failed to close Redis connection")
			}
			client.Close()
		})

	return
}
