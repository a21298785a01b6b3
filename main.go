package main

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/sauravnr/ludopi-sub000/api"
	"github.com/sauravnr/ludopi-sub000/util"
)

func main() {
	util.InitValidator()

	config, err := util.LoadConfig()

	if err != nil {
		log.Fatal(err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddress,
		Password: config.RedisPassword,
		DB:       0,
	})

	// check redis connection status
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal(err)
	}

	server := api.NewServer(config, rdb)

	log.Fatal(server.Start())
}
