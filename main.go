package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deemkeen/monodon/activitypub"
	"github.com/deemkeen/monodon/db"
	"github.com/deemkeen/monodon/follow"
	"github.com/deemkeen/monodon/store"
	"github.com/deemkeen/monodon/util"
	"github.com/deemkeen/monodon/web"
	"github.com/joho/godotenv"
)

func main() {

	// Optional .env file for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	conf, err := util.ReadConf()
	if err != nil {
		log.Fatalln(err)
	}

	fmt.Println("Configuration: ")
	fmt.Println(util.PrettyPrint(conf))

	log.Println("Running database migrations...")
	database := db.GetDB()
	if err := database.RunMigrations(); err != nil {
		log.Printf("Warning: Migration errors (may be normal if tables exist): %v", err)
	}
	log.Println("Database migrations complete")

	err, account := database.CreateLocalAccount(conf.Conf.Nickname)
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("Serving account %s (id %s)", conf.AccountHandle(), account.Id)

	st := store.New(util.ResolveDataDir(conf))
	if err := writeActorDocument(st, conf); err != nil {
		log.Printf("EX: write actor document: %v", err)
	}

	fed := activitypub.NewFed(conf)
	svc := follow.NewService(st, fed, conf)

	activitypub.StartDeliveryWorker(conf)

	startServing(conf, svc)
}

// writeActorDocument persists the local actor JSON the policy
// evaluator reads its approval flag from.
func writeActorDocument(st *store.Store, conf *util.AppConfig) error {
	doc := map[string]interface{}{
		"id":                        conf.ActorURI(),
		"type":                      "Person",
		"preferredUsername":         conf.Conf.Nickname,
		"manuallyApprovesFollowers": conf.Conf.ManualApproval,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return st.WriteActorJSON(conf.AccountHandle(), raw)
}

func startServing(conf *util.AppConfig, svc *follow.Service) {
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := web.Router(conf, svc); err != nil {
			log.Fatalln(err)
		}
	}()

	<-done
	log.Println("Stopping monodon")
}
