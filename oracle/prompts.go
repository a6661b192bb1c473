package oracle

import (
	"fmt"
	"strings"

	"github.com/coordlab/staghunt/game"
)

// DefaultContextPrompt frames the game for the agent: a paired
// decision-making experiment between two LEGO car manufacturers where
// collaboration is high risk, high reward.
const DefaultContextPrompt = `You are participating in an experiment as a representative of a LEGO car manufacturing company. Here's your situation:

CONTEXT:
- You represent a LEGO car manufacturing company
- You are a participant in a paired decision-making game
- Your partner represents another LEGO car manufacturing company
- You can build simple LEGO cars alone, or complex ones through collaboration
- Collaboration is high risk, high reward with potential for large sunk costs if it fails

GAME RULES:
- You will complete several tasks to maximize your points
- Points are earned individually, not shared with your partner
- Points depend on both your decision and your partner's decision
- Each task has several LEGO car design options
- All options except one are collaborative designs requiring partner cooperation
- One option is an individual design with guaranteed points
- If both choose collaborative designs (any combination), you earn the upside
- If you choose collaborative but partner chooses individual, you get the downside`

// renderOptions lists a task's options the way the agent sees them.
func renderOptions(t *game.Task) string {
	var sb strings.Builder
	for _, opt := range t.Options {
		if opt.Kind == game.KindCollaborative {
			fmt.Fprintf(&sb, "    - %s: Upside = %d, Downside = %d\n", opt.ID, opt.Upside, opt.Downside)
		} else {
			fmt.Fprintf(&sb, "    - %s: Guaranteed = %d\n", opt.ID, opt.Guaranteed)
		}
	}
	return sb.String()
}

// renderHistory lists the conversation from the perspective of one agent.
func renderHistory(history []game.Message, agentID int) string {
	var sb strings.Builder
	for _, msg := range history {
		speaker := fmt.Sprintf("Agent %d", msg.From)
		if msg.From == agentID {
			speaker = "You"
		}
		fmt.Fprintf(&sb, "    %s: %q\n", speaker, msg.Text)
	}
	return sb.String()
}

// choiceList renders the ids of the collaborative options as `"A"/"B"/"C"`.
func choiceList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("%q", id)
	}
	return strings.Join(quoted, "/")
}

func buildBeliefPrompt(bc BeliefContext) string {
	var sb strings.Builder
	sb.WriteString("Your task is to evaluate tasks based on their payoff structures.\n\n")
	sb.WriteString("Here is the task you need to evaluate:\n\n")
	fmt.Fprintf(&sb, "    Task ID: %d\n", bc.Task.TaskID)
	sb.WriteString("    Options:\n")
	sb.WriteString(renderOptions(bc.Task))
	if bc.TechFailureRate > 0 {
		fmt.Fprintf(&sb, "\n    There's a %d%% technical error chance that causes collaboration to fail.\n", int(bc.TechFailureRate*100))
	}
	sb.WriteString("\nWhat is your assessment of the likelihood (belief) (0-100) that collaboration would be successful in this specific task?\n")
	fmt.Fprintf(&sb, "Also, provide a brief explanation of your reasoning. Do not disclose the option you are considering, but rather communicate whether you want to collaborate or not. You also have the choice to negotiate with agent %d - to convince them to choose collaboration or individual action according to your payoff structure.\n\n", bc.PartnerID)
	fmt.Fprintf(&sb, "Respond in JSON format as follows:\n")
	fmt.Fprintf(&sb, `{"belief": NUMBER, "reasoning": "brief explanation of how you arrived at this belief based on the context and options.", "message": "one line message to agent %d"}`, bc.PartnerID)
	return sb.String()
}

func buildReplyPrompt(rc ReplyContext) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are in a conversation with Agent %d. Here is the conversation so far:\n\n", rc.PartnerID)
	sb.WriteString(renderHistory(rc.History, rc.AgentID))
	sb.WriteString("\nContext for your reply:\n")
	fmt.Fprintf(&sb, "    - Your current belief: you estimate a %d%% chance that collaboration would be successful\n", rc.Belief)
	if rc.PreviousPrediction != NoPrediction {
		fmt.Fprintf(&sb, "    - Your previous prediction: you estimated Agent %d's belief was %d%%\n", rc.PartnerID, rc.PreviousPrediction)
		fmt.Fprintf(&sb, "      (You can compare this with Agent %d's actual message to adjust your strategy)\n", rc.PartnerID)
	}
	sb.WriteString("    - Task options available:\n")
	sb.WriteString(renderOptions(rc.Task))
	if rc.TechFailureRate > 0 {
		fmt.Fprintf(&sb, "    - Technical failure risk: %d%%\n", int(rc.TechFailureRate*100))
	}
	fmt.Fprintf(&sb, "\nCreate a strategic reply message to Agent %d. Your reply should:\n", rc.PartnerID)
	sb.WriteString(`    - Not disclose your specific belief percentage
    - Not disclose which specific option you're considering
    - Be informed by your own assessment and the payoff structure
    - Respond strategically to the conversation so far
    - Communicate whether you want to collaborate or not
    - You can negotiate further, adjust your stance, or finalize your position
`)
	if rc.RequestBeliefUpdate {
		fmt.Fprintf(&sb, "\nAfter seeing the latest message, also provide:\n")
		sb.WriteString("    1. Your UPDATED belief (0-100) about likelihood of successful collaboration after this exchange\n")
		fmt.Fprintf(&sb, "    2. Your PREDICTION (0-100) of what you think Agent %d's belief is about successful collaboration\n", rc.PartnerID)
		fmt.Fprintf(&sb, "       (This prediction will NOT be shared with Agent %d)\n\n", rc.PartnerID)
		fmt.Fprintf(&sb, "Respond in JSON format:\n")
		fmt.Fprintf(&sb, `{"reply": "your one line reply message to agent %d", "updated_belief": NUMBER, "predicted_partner_belief": NUMBER}`, rc.PartnerID)
	} else {
		fmt.Fprintf(&sb, "\nRespond in JSON format:\n")
		fmt.Fprintf(&sb, `{"reply": "your one line reply message to agent %d"}`, rc.PartnerID)
	}
	return sb.String()
}

func buildDecisionPrompt(dc DecisionContext) string {
	collab := dc.Task.CollaborativeIDs()
	safe := dc.Task.SafeOption()

	var sb strings.Builder
	sb.WriteString("Your task is to make a decision about the given task based on its payoff structures and the u-value.\n\n")
	fmt.Fprintf(&sb, "**Your Initial Assessment**: You initially estimated a %d%% chance that the collaboration would be successful.\n", dc.InitialBelief)
	if dc.FinalBelief != dc.InitialBelief {
		fmt.Fprintf(&sb, "**Your Updated Belief**: After the communication exchanges, your updated belief is %d%%\n", dc.FinalBelief)
	}
	if dc.PartnerPrediction != NoPrediction {
		fmt.Fprintf(&sb, "**Your Prediction of Partner's Belief**: You estimate that your partner's belief is %d%%\n", dc.PartnerPrediction)
	}
	if dc.PartnerInitialBelief != NoPrediction {
		fmt.Fprintf(&sb, "**Partner's Initial Assessment**: Your partner initially estimated a %d%% chance that the collaboration would be successful.\n", dc.PartnerInitialBelief)
	}

	if len(dc.History) > 0 {
		sb.WriteString("\n**Full Communication History**:\n")
		sb.WriteString(renderHistory(dc.History, dc.AgentID))
	}

	sb.WriteString("\n**Your Task Options**:\n")
	sb.WriteString(renderOptions(dc.Task))

	sb.WriteString("\n**Key Facts**:\n")
	if dc.TechFailureRate > 0 {
		fmt.Fprintf(&sb, "    - Technical failure risk: %d percent\n", int(dc.TechFailureRate*100))
	}
	fmt.Fprintf(&sb, "    - The minimum required collaboration belief (\"u-value\"): %d percent\n", int(dc.Task.UValue*100))

	sb.WriteString("\nChoose your option:\n")
	fmt.Fprintf(&sb, "    - Option %s (collaborative)\n", strings.Join(collab, ", "))
	fmt.Fprintf(&sb, "    - Option %s (individual): Guaranteed %d points\n", safe.ID, safe.Guaranteed)

	sb.WriteString(`
Make your decision based on:
    1. Your belief about collaboration success
    2. What you know about your partner's stance
    3. The conversation history
    4. The u-value threshold

`)
	fmt.Fprintf(&sb, "Respond in JSON format: ")
	fmt.Fprintf(&sb, `{"choice": %s/%q, "strategy": "collaborative"/"individual", "reasoning": "your explanation"}`,
		choiceList(collab), safe.ID)
	return sb.String()
}
