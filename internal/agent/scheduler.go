package agent

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron runner and the set of registered agents.
type Scheduler struct {
	cron   *cron.Cron
	agents []Agent
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		agents: make([]Agent, 0),
	}
}

// RegisterAgent adds an agent; agents with a schedule are wired into cron.
func (s *Scheduler) RegisterAgent(agent Agent) {
	s.agents = append(s.agents, agent)

	schedule := agent.GetSchedule()
	if schedule == "" {
		log.Printf("agent: [%s] registered on-demand", agent.GetName())
		return
	}

	_, err := s.cron.AddFunc(schedule, func() {
		log.Printf("agent: [%s] starting scheduled run", agent.GetName())
		if err := agent.Execute(context.Background()); err != nil {
			log.Printf("agent: [%s] run failed: %v", agent.GetName(), err)
			return
		}
		log.Printf("agent: [%s] run completed", agent.GetName())
	})
	if err != nil {
		log.Printf("agent: failed to schedule %s: %v", agent.GetName(), err)
		return
	}
	log.Printf("agent: [%s] scheduled with cron %q", agent.GetName(), schedule)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Printf("agent: scheduler started with %d agents", len(s.agents))
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("agent: scheduler stopped")
}

// RunAgentByName triggers a single agent outside its schedule.
func (s *Scheduler) RunAgentByName(ctx context.Context, name string) error {
	for _, agent := range s.agents {
		if agent.GetName() == name {
			return agent.Execute(ctx)
		}
	}
	log.Printf("agent: no agent named %q", name)
	return nil
}

func (s *Scheduler) GetRegisteredAgents() []string {
	names := make([]string, len(s.agents))
	for i, agent := range s.agents {
		names[i] = agent.GetName()
	}
	return names
}
