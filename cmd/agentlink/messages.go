package main

import "github.com/glimte/rendezvous-go/contracts"

// Ping is sent by the host
type Ping struct {
	contracts.BaseMessage
	Seq int `json:"seq"`
}

// Pong is the agent's answer to a Ping
type Pong struct {
	contracts.BaseReply
	Seq int `json:"seq"`
}

func newPing(seq int) *Ping {
	return &Ping{BaseMessage: contracts.NewBaseMessage("Ping"), Seq: seq}
}
